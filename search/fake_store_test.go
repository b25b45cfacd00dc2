package search

import (
	"context"
	"math"

	"github.com/localkb/engine/chunk"
	"github.com/localkb/engine/embedding"
	"github.com/localkb/engine/store"
)

type fakeTable struct{ name string }

func (t *fakeTable) Name() string { return t.name }

// fakeStore is a minimal in-memory VectorStore for exercising the
// SearchEngine's merge/rank/cache logic without a real LanceDB backend.
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
	rows, ok := s.tables[kbName]
	if !ok {
		return nil, false, nil
	}
	_ = rows
	return &fakeTable{name: kbName}, true, nil
}

func (s *fakeStore) Insert(ctx context.Context, t store.Table, rows []chunk.Chunk) error {
	name := t.(*fakeTable).name
	s.tables[name] = append(s.tables[name], rows...)
	return nil
}

func (s *fakeStore) KNN(ctx context.Context, t store.Table, query []float32, k int, pred store.Predicate) ([]store.Scored, error) {
	name := t.(*fakeTable).name
	var scored []store.Scored
	for _, c := range s.tables[name] {
		if c.IsPlaceholder && !pred.IncludePlaceholders {
			continue
		}
		if pred.ExcludeTests && c.IsTest {
			continue
		}
		if pred.SourceKind != nil && c.SourceKind != *pred.SourceKind {
			continue
		}
		scored = append(scored, store.Scored{Chunk: c, Distance: l2(query, c.Vector)})
	}
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *fakeStore) Scan(ctx context.Context, t store.Table, pred store.Predicate, proj store.Projection) ([]chunk.Chunk, error) {
	name := t.(*fakeTable).name
	return s.tables[name], nil
}

func (s *fakeStore) DeleteWhere(ctx context.Context, t store.Table, pred store.Predicate) (int, error) {
	return 0, nil
}

func (s *fakeStore) Drop(ctx context.Context, kbName string) error {
	delete(s.tables, kbName)
	return nil
}

func l2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

type fakeEmbedder struct {
	vector []float32
}

func (e *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return e.vector, nil
}

func (e *fakeEmbedder) EmbedMany(ctx context.Context, texts []string) ([]*embedding.Vector, error) {
	return nil, nil
}

func (e *fakeEmbedder) Dimension() int { return len(e.vector) }
