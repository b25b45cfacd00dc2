package ingest

import (
	"context"

	"github.com/localkb/engine/chunk"
	"github.com/localkb/engine/convert"
	"github.com/localkb/engine/embedding"
	"github.com/localkb/engine/store"
)

type fakeTable struct{ name string }

func (t *fakeTable) Name() string { return t.name }

type fakeStore struct {
	tables map[string][]chunk.Chunk
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: map[string][]chunk.Chunk{}}
}

func (s *fakeStore) ListTables(ctx context.Context) ([]string, error) {
	var out []string
	for name := range s.tables {
		out = append(out, store.TableName(name, "1.0.0"))
	}
	return out, nil
}

func (s *fakeStore) CreateWithRows(ctx context.Context, kbName string, rows []chunk.Chunk) error {
	s.tables[kbName] = append([]chunk.Chunk{}, rows...)
	return nil
}

func (s *fakeStore) Open(ctx context.Context, kbName string) (store.Table, bool, error) {
	_, ok := s.tables[kbName]
	if !ok {
		return nil, false, nil
	}
	return &fakeTable{name: kbName}, true, nil
}

func (s *fakeStore) Insert(ctx context.Context, t store.Table, rows []chunk.Chunk) error {
	name := t.(*fakeTable).name
	s.tables[name] = append(s.tables[name], rows...)
	return nil
}

func (s *fakeStore) KNN(ctx context.Context, t store.Table, query []float32, k int, pred store.Predicate) ([]store.Scored, error) {
	return nil, nil
}

func (s *fakeStore) Scan(ctx context.Context, t store.Table, pred store.Predicate, proj store.Projection) ([]chunk.Chunk, error) {
	return s.tables[t.(*fakeTable).name], nil
}

func (s *fakeStore) DeleteWhere(ctx context.Context, t store.Table, pred store.Predicate) (int, error) {
	return 0, nil
}

func (s *fakeStore) Drop(ctx context.Context, kbName string) error {
	delete(s.tables, kbName)
	return nil
}

// fakeConverter returns fixed markdown for every file, regardless of path.
type fakeConverter struct {
	markdown string
	failFor  map[string]bool
}

func (c *fakeConverter) Convert(ctx context.Context, path string) (*convert.Result, error) {
	if c.failFor[path] {
		return nil, errConvertFailed
	}
	return &convert.Result{Markdown: c.markdown, Metadata: convert.Metadata{Format: "text"}}, nil
}

var errConvertFailed = &convertError{}

type convertError struct{}

func (e *convertError) Error() string { return "conversion failed" }

// fakeEmbedder returns a fixed-dimension vector for every non-empty input,
// or fails every EmbedMany call outright when fail is set.
type fakeEmbedder struct {
	dim  int
	fail bool
}

func (e *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, e.dim), nil
}

func (e *fakeEmbedder) EmbedMany(ctx context.Context, texts []string) ([]*embedding.Vector, error) {
	if e.fail {
		return nil, errEmbedFailed
	}
	out := make([]*embedding.Vector, len(texts))
	for i, t := range texts {
		if t == "" {
			continue
		}
		out[i] = &embedding.Vector{Values: make([]float32, e.dim)}
	}
	return out, nil
}

func (e *fakeEmbedder) Dimension() int { return e.dim }

var errEmbedFailed = &embedError{}

type embedError struct{}

func (e *embedError) Error() string { return "embedding model unreachable" }
