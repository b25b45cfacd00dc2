// Package search is the SearchEngine: embeds a query, fans out a KNN
// lookup across one or all knowledgebase tables, merges and ranks results,
// and caches the result set under a stable fingerprint.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/localkb/engine/chunk"
	"github.com/localkb/engine/embedding"
	"github.com/localkb/engine/enginerr"
	"github.com/localkb/engine/store"
)

const (
	defaultMaxResults = 50
	minMaxResults     = 1
	maxMaxResults     = 200
)

// Request is a search request.
type Request struct {
	Query        string
	KBFilter     string
	TypeFilter   string
	ExcludeTests bool
	MaxResults   int
}

// Result is one ranked row.
type Result struct {
	SourcePath  string     `json:"source_path"`
	Ordinal     int        `json:"ordinal"`
	Content     string     `json:"content"`
	ChunkKind   chunk.Kind `json:"chunk_kind"`
	SourceKind  string     `json:"source_kind"`
	HeadingPath []string   `json:"heading_path"`
	IsTest      bool       `json:"is_test"`
	Similarity  float64    `json:"similarity"`
	KBName      string     `json:"kb_name"`
}

// Response is the shaped output of a search.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	QueryMs int64    `json:"query_ms"`
}

// Engine is the SearchEngine.
type Engine struct {
	Store    store.VectorStore
	Embedder embedding.Embedder
	Cache    *Cache
	Logger   *slog.Logger
}

// NewEngine constructs an Engine with its own TTL cache.
func NewEngine(s store.VectorStore, e embedding.Embedder, ttl time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Store: s, Embedder: e, Cache: NewCache(ttl), Logger: logger}
}

// Search embeds the query, fans out a KNN lookup, merges and ranks the
// results, and caches the response under a stable fingerprint.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", enginerr.ErrInvalidInput)
	}
	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = defaultMaxResults
	}
	if maxResults < minMaxResults {
		maxResults = minMaxResults
	}
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}

	fp := Fingerprint(query, req.KBFilter, req.TypeFilter, req.ExcludeTests, maxResults)
	if cached, ok := e.Cache.Get(fp); ok {
		return &Response{Results: cached.Results, Total: cached.Total, QueryMs: time.Since(start).Milliseconds()}, nil
	}

	qvec, err := e.Embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	tableNames, err := e.resolveTables(ctx, req.KBFilter)
	if err != nil {
		return nil, err
	}

	pred := store.Predicate{ExcludeTests: req.ExcludeTests}
	if req.TypeFilter != "" {
		tf := req.TypeFilter
		pred.SourceKind = &tf
	}

	var all []store.Scored
	var kbNames []string
	for _, name := range tableNames {
		tbl, ok, err := e.Store.Open(ctx, name)
		if err != nil || !ok {
			if err != nil {
				e.Logger.Warn("search: opening table failed, skipping", "table", name, "error", err)
			}
			continue
		}
		scored, err := e.Store.KNN(ctx, tbl, qvec, maxResults, pred)
		if err != nil {
			e.Logger.Warn("search: knn failed, skipping table", "table", name, "error", err)
			continue
		}
		all = append(all, scored...)
		for range scored {
			kbNames = append(kbNames, name)
		}
	}

	results := mergeAndRank(all, kbNames, maxResults)
	resp := &Response{Results: results, Total: len(all), QueryMs: time.Since(start).Milliseconds()}
	e.Cache.Put(fp, cacheEntry{Results: resp.Results, Total: resp.Total})
	return resp, nil
}

func (e *Engine) resolveTables(ctx context.Context, kbFilter string) ([]string, error) {
	if kbFilter != "" {
		return []string{kbFilter}, nil
	}
	tables, err := e.Store.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing knowledgebases: %w", err)
	}
	var names []string
	for _, t := range tables {
		kbName, _, ok := store.ParseTableName(t)
		if ok {
			names = append(names, kbName)
		}
	}
	return names, nil
}

func mergeAndRank(scored []store.Scored, kbNames []string, limit int) []Result {
	type ranked struct {
		Result
		distance float32
	}
	out := make([]ranked, 0, len(scored))
	for i, s := range scored {
		kb := ""
		if i < len(kbNames) {
			kb = kbNames[i]
		}
		out = append(out, ranked{
			Result: Result{
				SourcePath:  s.Chunk.SourcePath,
				Ordinal:     s.Chunk.Ordinal,
				Content:     s.Chunk.Content,
				ChunkKind:   s.Chunk.ChunkKind,
				SourceKind:  s.Chunk.SourceKind,
				HeadingPath: s.Chunk.HeadingPath,
				IsTest:      s.Chunk.IsTest,
				Similarity:  1 / (1 + float64(s.Distance)),
				KBName:      kb,
			},
			distance: s.Distance,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		if out[i].KBName != out[j].KBName {
			return out[i].KBName < out[j].KBName
		}
		if out[i].SourcePath != out[j].SourcePath {
			return out[i].SourcePath < out[j].SourcePath
		}
		return out[i].Ordinal < out[j].Ordinal
	})

	if len(out) > limit {
		out = out[:limit]
	}
	results := make([]Result, len(out))
	for i, r := range out {
		results[i] = r.Result
	}
	return results
}
