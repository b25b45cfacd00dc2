package registry

import (
	"context"

	"github.com/localkb/engine/chunk"
	"github.com/localkb/engine/enginerr"
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
	if _, ok := s.tables[kbName]; ok {
		return enginerr.ErrAlreadyExists
	}
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
	name := t.(*fakeTable).name
	var out []chunk.Chunk
	for _, c := range s.tables[name] {
		if c.IsPlaceholder && !pred.IncludePlaceholders {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeStore) DeleteWhere(ctx context.Context, t store.Table, pred store.Predicate) (int, error) {
	name := t.(*fakeTable).name
	var kept []chunk.Chunk
	removed := 0
	for _, c := range s.tables[name] {
		if pred.IngestionTS != nil && c.IngestionTS == *pred.IngestionTS {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.tables[name] = kept
	return removed, nil
}

func (s *fakeStore) Drop(ctx context.Context, kbName string) error {
	delete(s.tables, kbName)
	return nil
}
