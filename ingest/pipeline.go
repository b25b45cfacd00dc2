// Package ingest is the IngestionPipeline: it orchestrates Scanner ->
// Converter -> Chunker -> Embedder -> VectorStore per file, in batches,
// emitting progress and tolerating per-file and per-chunk failures without
// aborting the whole run.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/localkb/engine/chunk"
	"github.com/localkb/engine/chunker"
	"github.com/localkb/engine/convert"
	"github.com/localkb/engine/embedding"
	"github.com/localkb/engine/enginerr"
	"github.com/localkb/engine/scanner"
	"github.com/localkb/engine/store"
)

// Request describes one ingestion run.
type Request struct {
	KBName  string
	Root    string
	Options RequestOptions
}

// RequestOptions carries the per-ingestion tuning knobs.
type RequestOptions struct {
	BatchSize             int
	MaxFileBytes          int64
	MaxConcurrentConverts int
	IgnoreFiles           []string
	ExtraIgnorePatterns   []string
	FollowSymlinks        bool
	ChunkerOptions        chunker.Options
}

// Result is the summary returned when an ingestion completes, fails, or is
// cancelled.
type Result struct {
	SessionID      string
	FilesProcessed int
	FilesSkipped   int
	ChunksCreated  int
	Errors         []string
	DurationMs     int64
}

// Pipeline wires the components an ingestion needs. One Pipeline is shared
// across concurrent ingestions of different KBs; the Embedder instance is
// stateless and safely called concurrently, each ingestion making its own
// independent EmbedMany calls.
type Pipeline struct {
	Store         store.VectorStore
	Converter     convert.Converter
	Embedder      embedding.Embedder
	SchemaVersion string
	Logger        *slog.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewPipeline constructs a Pipeline.
func NewPipeline(s store.VectorStore, c convert.Converter, e embedding.Embedder, schemaVersion string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Store:         s,
		Converter:     c,
		Embedder:      e,
		SchemaVersion: schemaVersion,
		Logger:        logger,
		inFlight:      make(map[string]bool),
	}
}

func (p *Pipeline) acquire(kbName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[kbName] {
		return fmt.Errorf("%w: ingestion already in progress for %q", enginerr.ErrConflict, kbName)
	}
	p.inFlight[kbName] = true
	return nil
}

func (p *Pipeline) release(kbName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, kbName)
}

// Ingest scans the root, converts and chunks every recognized file, embeds
// and stores the results, and reports progress on progressCh (which may be
// nil). It never returns a partial Result silently: on cancellation or
// fatal error the terminal event and the returned error both reflect it.
// Each call is its own ingestion session, identified by a freshly minted id.
func (p *Pipeline) Ingest(ctx context.Context, req Request, progressCh chan<- ProgressEvent) (*Result, error) {
	if !store.ValidKBName(req.KBName) {
		return nil, fmt.Errorf("%w: invalid knowledgebase name %q", enginerr.ErrInvalidInput, req.KBName)
	}
	if err := p.acquire(req.KBName); err != nil {
		return nil, err
	}
	defer p.release(req.KBName)

	sessionID := uuid.NewString()
	sink := newProgressSink(progressCh, sessionID)
	start := time.Now()

	result, err := p.run(ctx, req, sink)
	result.SessionID = sessionID
	result.DurationMs = time.Since(start).Milliseconds()

	switch {
	case err != nil && ctx.Err() != nil:
		sink.emitTerminal(ProgressEvent{Phase: PhaseCancelled})
	case err != nil:
		sink.emitTerminal(ProgressEvent{Phase: PhaseFailed})
	default:
		sink.emitTerminal(ProgressEvent{Phase: PhaseCompleted})
	}
	return result, err
}

func (p *Pipeline) run(ctx context.Context, req Request, sink progressSink) (*Result, error) {
	result := &Result{}

	// Step 1: re-ingestion drops any existing table for this KB.
	if _, ok, err := p.Store.Open(ctx, req.KBName); err != nil {
		return result, err
	} else if ok {
		if err := p.Store.Drop(ctx, req.KBName); err != nil {
			return result, fmt.Errorf("dropping existing knowledgebase %q: %w", req.KBName, err)
		}
	}

	// Step 2: fresh ingestion timestamp, sub-second resolution.
	ingestionTS := time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")

	// Step 3: scan.
	sink.emit(ProgressEvent{Phase: PhaseScanning})
	files, err := scanner.Scan(scanner.Options{
		Root:                req.Root,
		IgnoreFiles:         req.Options.IgnoreFiles,
		ExtraIgnorePatterns: req.Options.ExtraIgnorePatterns,
		MaxFileBytes:        req.Options.MaxFileBytes,
		FollowSymlinks:      req.Options.FollowSymlinks,
		Logger:              p.Logger,
	})
	if err != nil {
		return result, fmt.Errorf("scanning %q: %w", req.Root, err)
	}
	total := len(files)
	sink.emit(ProgressEvent{Phase: PhaseScanning, Current: 0, Total: total})

	batchSize := req.Options.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	concurrency := req.Options.MaxConcurrentConverts
	if concurrency <= 0 {
		concurrency = 1
	}

	createdTable := false
	processed := 0
	globalSeq := 0

	for start := 0; start < len(files); start += batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := start + batchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[start:end]

		chunks, batchErrs := p.convertAndChunk(ctx, batch, req, concurrency, &result.FilesSkipped)
		result.Errors = append(result.Errors, batchErrs...)

		rows, embedErrs := p.embedBatch(ctx, chunks, req.KBName, ingestionTS, req.Root, &globalSeq)
		result.Errors = append(result.Errors, embedErrs...)
		result.ChunksCreated += len(rows)

		if len(rows) > 0 {
			if !createdTable {
				if err := p.Store.CreateWithRows(ctx, req.KBName, rows); err != nil {
					return result, fmt.Errorf("creating knowledgebase %q: %w", req.KBName, err)
				}
				createdTable = true
			} else {
				tbl, ok, err := p.Store.Open(ctx, req.KBName)
				if err != nil || !ok {
					return result, fmt.Errorf("reopening knowledgebase %q: %w", req.KBName, err)
				}
				if err := p.Store.Insert(ctx, tbl, rows); err != nil {
					return result, fmt.Errorf("inserting into %q: %w", req.KBName, err)
				}
			}
		}

		processed += len(batch)
		result.FilesProcessed = processed
		sink.emit(ProgressEvent{Phase: PhaseStoring, Current: processed, Total: total})
	}

	return result, nil
}

// convertAndChunk converts and chunks one batch of files, bounding
// converter concurrency with errgroup.SetLimit. Per-file conversion or
// chunking failures are recorded, not propagated.
func (p *Pipeline) convertAndChunk(ctx context.Context, batch []scanner.FileDescriptor, req Request, concurrency int, filesSkipped *int) ([]chunk.Chunk, []string) {
	var mu sync.Mutex
	var chunks []chunk.Chunk
	var errs []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, fd := range batch {
		fd := fd
		g.Go(func() error {
			res, err := p.Converter.Convert(gctx, fd.AbsPath)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("%s: convert failed: %v", fd.RelPath, err))
				*filesSkipped++
				mu.Unlock()
				return nil
			}

			var fileChunks []chunk.Chunk
			if res.Structured != nil {
				fileChunks = chunker.ChunkStructured(res.Structured, req.Options.ChunkerOptions)
			} else {
				fileChunks = chunker.Chunk(res.Markdown, req.Options.ChunkerOptions)
			}

			mu.Lock()
			defer mu.Unlock()
			if len(fileChunks) == 0 {
				*filesSkipped++
				return nil
			}
			for i := range fileChunks {
				fileChunks[i].SourcePath = fd.RelPath
				fileChunks[i].SourceKind = fd.DetectedType
				fileChunks[i].IsTest = fd.IsTest
			}
			chunks = append(chunks, fileChunks...)
			return nil
		})
	}
	_ = g.Wait()

	return chunks, errs
}

// embedBatch embeds every chunk's content and pairs survivors with their
// vectors plus the bookkeeping columns. Chunks whose embedding is absent
// from the result are dropped, never aborting the batch. If EmbedMany fails
// for the whole batch, every distinct source file in it is recorded as an
// error instead of silently vanishing from the run.
func (p *Pipeline) embedBatch(ctx context.Context, chunks []chunk.Chunk, kbName, ingestionTS, root string, globalSeq *int) ([]chunk.Chunk, []string) {
	if len(chunks) == 0 {
		return nil, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := p.Embedder.EmbedMany(ctx, texts)
	if err != nil {
		p.Logger.Warn("ingest: embedder unreachable, batch dropped", "error", err)
		seen := make(map[string]bool)
		var errs []string
		for _, c := range chunks {
			if seen[c.SourcePath] {
				continue
			}
			seen[c.SourcePath] = true
			errs = append(errs, fmt.Sprintf("%s: embedding failed: %v", c.SourcePath, err))
		}
		return nil, errs
	}

	rows := make([]chunk.Chunk, 0, len(chunks))
	for i, c := range chunks {
		if vectors[i] == nil {
			p.Logger.Warn("ingest: embedding absent, dropping chunk", "source_path", c.SourcePath, "ordinal", c.Ordinal)
			continue
		}
		c.Vector = vectors[i].Values
		c.ID = fmt.Sprintf("%s_%s_%d", kbName, ingestionTS, *globalSeq)
		*globalSeq++
		c.KBName = kbName
		c.SourceRoot = root
		c.IngestionTS = ingestionTS
		rows = append(rows, c)
	}
	return rows, nil
}
