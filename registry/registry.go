// Package registry is the KnowledgeBaseRegistry: enumerate known tables,
// compute per-KB statistics, rename, and delete — all built directly on
// the VectorStore and the kb_*_<version> table naming scheme.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/localkb/engine/chunk"
	"github.com/localkb/engine/enginerr"
	"github.com/localkb/engine/store"
)

// Metadata is one row of list().
type Metadata struct {
	Name          string
	ChunkCount    int
	FileCount     int
	LastIngestion string
}

// Stats is the result of stats(kb_name).
type Stats struct {
	Name              string             `json:"name"`
	ChunkKindCounts   map[chunk.Kind]int `json:"chunk_kind_counts"`
	TotalContentBytes int64              `json:"total_content_bytes"`
	UniqueFileCount   int                `json:"unique_file_count"`
	LatestIngestionTS string             `json:"latest_ingestion_ts"`
}

// Registry implements the KnowledgeBaseRegistry operations.
type Registry struct {
	Store         store.VectorStore
	SchemaVersion string
}

func NewRegistry(s store.VectorStore, schemaVersion string) *Registry {
	return &Registry{Store: s, SchemaVersion: schemaVersion}
}

// List enumerates every knowledgebase table and summarizes it.
func (r *Registry) List(ctx context.Context) ([]Metadata, error) {
	tables, err := r.Store.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	var out []Metadata
	for _, t := range tables {
		kbName, _, ok := store.ParseTableName(t)
		if !ok {
			continue
		}
		tbl, exists, err := r.Store.Open(ctx, kbName)
		if err != nil || !exists {
			continue
		}
		rows, err := r.Store.Scan(ctx, tbl, store.Predicate{}, nil)
		if err != nil {
			continue
		}
		files := map[string]bool{}
		latest := ""
		for _, row := range rows {
			files[row.SourcePath] = true
			if row.IngestionTS > latest {
				latest = row.IngestionTS
			}
		}
		out = append(out, Metadata{
			Name:          kbName,
			ChunkCount:    len(rows),
			FileCount:     len(files),
			LastIngestion: latest,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Stats scans the full table once to compute a chunk-kind distribution,
// total content bytes, unique file count, and latest ingestion_ts.
func (r *Registry) Stats(ctx context.Context, kbName string) (*Stats, error) {
	tbl, ok, err := r.Store.Open(ctx, kbName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: knowledgebase %q", enginerr.ErrNotFound, kbName)
	}
	rows, err := r.Store.Scan(ctx, tbl, store.Predicate{}, nil)
	if err != nil {
		return nil, err
	}

	st := &Stats{Name: kbName, ChunkKindCounts: map[chunk.Kind]int{}}
	files := map[string]bool{}
	for _, row := range rows {
		st.ChunkKindCounts[row.ChunkKind]++
		st.TotalContentBytes += int64(len(row.Content))
		files[row.SourcePath] = true
		if row.IngestionTS > st.LatestIngestionTS {
			st.LatestIngestionTS = row.IngestionTS
		}
	}
	st.UniqueFileCount = len(files)
	return st, nil
}

// Rename copies every row of old into a freshly created table under
// newName with _kb_name rewritten, then drops old. Fails if newName
// already exists.
func (r *Registry) Rename(ctx context.Context, oldName, newName string) error {
	if !store.ValidKBName(newName) {
		return fmt.Errorf("%w: invalid knowledgebase name %q", enginerr.ErrInvalidInput, newName)
	}
	if _, exists, err := r.Store.Open(ctx, newName); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%w: knowledgebase %q", enginerr.ErrAlreadyExists, newName)
	}

	tbl, ok, err := r.Store.Open(ctx, oldName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: knowledgebase %q", enginerr.ErrNotFound, oldName)
	}
	rows, err := r.Store.Scan(ctx, tbl, store.Predicate{IncludePlaceholders: true}, nil)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].KBName = newName
	}
	if err := r.Store.CreateWithRows(ctx, newName, rows); err != nil {
		return err
	}
	return r.Store.Drop(ctx, oldName)
}

// Delete drops kbName's backing table entirely.
func (r *Registry) Delete(ctx context.Context, kbName string) error {
	if _, ok, err := r.Store.Open(ctx, kbName); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: knowledgebase %q", enginerr.ErrNotFound, kbName)
	}
	return r.Store.Drop(ctx, kbName)
}

// DeleteIngestion removes every row stamped with the given ingestion_ts
// and returns the count removed.
func (r *Registry) DeleteIngestion(ctx context.Context, kbName, ingestionTS string) (int, error) {
	tbl, ok, err := r.Store.Open(ctx, kbName)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: knowledgebase %q", enginerr.ErrNotFound, kbName)
	}
	ts := ingestionTS
	return r.Store.DeleteWhere(ctx, tbl, store.Predicate{IngestionTS: &ts})
}
