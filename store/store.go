// Package store is the VectorStore: a columnar, file-backed table per
// knowledgebase, implemented on github.com/aqua777/go-lancedb +
// apache/arrow/go/v17, one table per knowledgebase holding the full Chunk
// schema.
package store

import (
	"context"

	"github.com/localkb/engine/chunk"
)

// Predicate is a metadata filter evaluated server-side by the backing
// store. Any number of the fields may be set at once; every set field
// becomes one condition and the conditions are combined with AND.
type Predicate struct {
	IncludePlaceholders bool // if false (the default), _is_placeholder=true rows are excluded
	SourceKind          *string
	ExcludeTests        bool
	IngestionTS         *string
}

// Scored pairs a Chunk with the L2 distance computed by a KNN query.
type Scored struct {
	Chunk    chunk.Chunk
	Distance float32
}

// Projection names the columns a Scan should return; nil means all columns.
// Every caller in this tree passes nil today, so LanceDBStore.Scan always
// decodes the full row rather than pushing column selection down to the
// query — a non-nil Projection is accepted by the interface but currently
// has no effect.
type Projection []string

// VectorStore is the engine's only persistence abstraction: every
// knowledgebase is one backing table, named and versioned per naming.go.
type VectorStore interface {
	// ListTables enumerates tables whose name matches the kb_*_<version>
	// naming scheme, across all schema versions ever written.
	ListTables(ctx context.Context) ([]string, error)

	// CreateWithRows creates kbName's table, inferring its schema from
	// rows[0]. Fails with enginerr.ErrAlreadyExists if the table exists.
	CreateWithRows(ctx context.Context, kbName string, rows []chunk.Chunk) error

	// Open returns the table for kbName, or (nil, false) if it doesn't
	// exist — a missing table is never itself an error.
	Open(ctx context.Context, kbName string) (Table, bool, error)

	// Insert appends rows to an already-open table.
	Insert(ctx context.Context, t Table, rows []chunk.Chunk) error

	// KNN returns the k rows nearest query in L2 distance among those
	// matching pred, ties broken by ascending ordinal.
	KNN(ctx context.Context, t Table, query []float32, k int, pred Predicate) ([]Scored, error)

	// Scan returns every row matching pred. proj is reserved for future
	// column projection; implementations are only required to honor a nil
	// Projection, which returns every column.
	Scan(ctx context.Context, t Table, pred Predicate, proj Projection) ([]chunk.Chunk, error)

	// DeleteWhere removes every row matching pred and returns the count removed.
	DeleteWhere(ctx context.Context, t Table, pred Predicate) (int, error)

	// Drop removes kbName's backing table entirely.
	Drop(ctx context.Context, kbName string) error
}

// Table is an opaque handle to an open backing table, returned by Open
// (implementations type-assert it back to their concrete type).
type Table interface {
	Name() string
}
