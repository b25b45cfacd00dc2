package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	lancedb "github.com/aqua777/go-lancedb"

	"github.com/localkb/engine/chunk"
	"github.com/localkb/engine/enginerr"
)

// column order for the Arrow schema every table is built with. The vector
// column's width is fixed per table at creation time, from the first row's
// Vector length — every row in a table carries the same embedding
// dimension.
var scalarColumns = []arrow.Field{
	{Name: "id", Type: arrow.BinaryTypes.String},
	{Name: "content", Type: arrow.BinaryTypes.String},
	{Name: "source_path", Type: arrow.BinaryTypes.String},
	{Name: "ordinal", Type: arrow.PrimitiveTypes.Int32},
	{Name: "token_count", Type: arrow.PrimitiveTypes.Int32},
	{Name: "chunk_kind", Type: arrow.BinaryTypes.String},
	{Name: "heading_path", Type: arrow.BinaryTypes.String}, // JSON-encoded []string
	{Name: "source_kind", Type: arrow.BinaryTypes.String},
	{Name: "is_test", Type: arrow.FixedWidthTypes.Boolean},
	{Name: "ingestion_ts", Type: arrow.BinaryTypes.String},
	{Name: "kb_name", Type: arrow.BinaryTypes.String},
	{Name: "source_root", Type: arrow.BinaryTypes.String},
	{Name: "is_placeholder", Type: arrow.FixedWidthTypes.Boolean},
}

func arrowSchema(dim int) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(scalarColumns)+1)
	fields = append(fields, scalarColumns...)
	fields = append(fields, arrow.Field{
		Name: "embedding",
		Type: arrow.FixedSizeListOf(int32(dim), arrow.PrimitiveTypes.Float32),
	})
	return arrow.NewSchema(fields, nil)
}

// LanceDBStore is the VectorStore implementation backed by LanceDB: one
// connection serving every knowledgebase's table.
type LanceDBStore struct {
	conn          *lancedb.Connection
	schemaVersion string

	mu     sync.Mutex // serializes per-table open/create races
	tables map[string]*lancedbTable
}

type lancedbTable struct {
	name  string
	table *lancedb.Table
	dim   int
}

func (t *lancedbTable) Name() string { return t.name }

// Open connects to the store directory at uri. schemaVersion is the
// process-wide constant embedded in every table this store creates;
// existing tables written under a different version are reported via
// warnLog rather than silently migrated.
func Open(uri, schemaVersion string, warnLog func(msg string, args ...any)) (*LanceDBStore, error) {
	conn, err := lancedb.Connect(uri)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	s := &LanceDBStore{
		conn:          conn,
		schemaVersion: schemaVersion,
		tables:        make(map[string]*lancedbTable),
	}

	names, err := conn.TableNames()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: list tables: %w", err)
	}
	if warnLog != nil {
		for _, name := range names {
			kbName, ver, ok := ParseTableName(name)
			if ok && ver != schemaVersion {
				warnLog("store: schema version mismatch", "kb", kbName, "table", name, "table_version", ver, "current_version", schemaVersion)
			}
		}
	}
	return s, nil
}

func (s *LanceDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tables {
		t.table.Close()
	}
	return s.conn.Close()
}

func (s *LanceDBStore) ListTables(ctx context.Context) ([]string, error) {
	names, err := s.conn.TableNames()
	if err != nil {
		return nil, fmt.Errorf("store: list tables: %w", err)
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if IsKBTable(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *LanceDBStore) CreateWithRows(ctx context.Context, kbName string, rows []chunk.Chunk) error {
	if len(rows) == 0 {
		return fmt.Errorf("store: create requires at least one row")
	}
	name := TableName(kbName, s.schemaVersion)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[name]; exists {
		return fmt.Errorf("store: create %s: %w", name, enginerr.ErrAlreadyExists)
	}
	existing, err := s.conn.TableNames()
	if err != nil {
		return fmt.Errorf("store: list tables: %w", err)
	}
	for _, n := range existing {
		if n == name {
			return fmt.Errorf("store: create %s: %w", name, enginerr.ErrAlreadyExists)
		}
	}

	dim := len(rows[0].Vector)
	if dim == 0 {
		return fmt.Errorf("store: first row has no embedding dimension")
	}
	record, err := buildRecord(dim, rows)
	if err != nil {
		return err
	}
	defer record.Release()

	tbl, err := s.conn.CreateTable(name)
	if err != nil {
		return fmt.Errorf("store: create table %s: %w", name, err)
	}
	if err := tbl.Add(record, lancedb.AddModeOverwrite); err != nil {
		// The table this call just created is dropped rather than the Add
		// retried. A table already present when CreateWithRows starts,
		// including one left behind by a crashed earlier process, is not
		// dropped: the call fails with ErrAlreadyExists above.
		s.conn.DropTable(name)
		return fmt.Errorf("store: initial write to %s: %w", name, err)
	}
	s.tables[name] = &lancedbTable{name: name, table: tbl, dim: dim}
	return nil
}

func (s *LanceDBStore) Open(ctx context.Context, kbName string) (Table, bool, error) {
	name := TableName(kbName, s.schemaVersion)

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[name]; ok {
		return t, true, nil
	}

	existing, err := s.conn.TableNames()
	if err != nil {
		return nil, false, fmt.Errorf("store: list tables: %w", err)
	}
	found := false
	for _, n := range existing {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return nil, false, nil
	}

	tbl, err := s.conn.OpenTable(name)
	if err != nil {
		return nil, false, fmt.Errorf("store: open table %s: %w", name, err)
	}
	lt := &lancedbTable{name: name, table: tbl}
	s.tables[name] = lt
	return lt, true, nil
}

func (s *LanceDBStore) Insert(ctx context.Context, t Table, rows []chunk.Chunk) error {
	lt, ok := t.(*lancedbTable)
	if !ok {
		return fmt.Errorf("store: insert: wrong table handle type")
	}
	if len(rows) == 0 {
		return nil
	}
	dim := lt.dim
	if dim == 0 {
		dim = len(rows[0].Vector)
	}
	record, err := buildRecord(dim, rows)
	if err != nil {
		return err
	}
	defer record.Release()

	if err := lt.table.Add(record, lancedb.AddModeAppend); err != nil {
		return fmt.Errorf("store: insert into %s: %w", lt.name, err)
	}
	return nil
}

func (s *LanceDBStore) KNN(ctx context.Context, t Table, query []float32, k int, pred Predicate) ([]Scored, error) {
	lt, ok := t.(*lancedbTable)
	if !ok {
		return nil, fmt.Errorf("store: knn: wrong table handle type")
	}

	q := lt.table.Query().NearestTo(query).Limit(k)
	if clause := whereClause(pred); clause != "" {
		q = q.Where(clause)
	}

	records, err := q.Execute()
	if err != nil {
		return nil, fmt.Errorf("store: knn on %s: %w", lt.name, err)
	}

	var out []Scored
	for _, record := range records {
		rows, err := decodeRecord(record)
		record.Release()
		if err != nil {
			return nil, err
		}
		distIdx := -1
		for i, f := range record.Schema().Fields() {
			if f.Name == "_distance" {
				distIdx = i
				break
			}
		}
		for i, c := range rows {
			dist := float32(0)
			if distIdx >= 0 {
				if col, ok := record.Column(distIdx).(*array.Float32); ok {
					dist = col.Value(i)
				}
			}
			out = append(out, Scored{Chunk: c, Distance: dist})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Chunk.Ordinal < out[j].Chunk.Ordinal
	})
	return out, nil
}

// Scan ignores proj and always decodes every column; only nil Projections
// reach this method today, so pushing column selection down to the query
// builder has no caller to exercise it yet.
func (s *LanceDBStore) Scan(ctx context.Context, t Table, pred Predicate, proj Projection) ([]chunk.Chunk, error) {
	lt, ok := t.(*lancedbTable)
	if !ok {
		return nil, fmt.Errorf("store: scan: wrong table handle type")
	}
	q := lt.table.Query()
	if clause := whereClause(pred); clause != "" {
		q = q.Where(clause)
	}
	records, err := q.Execute()
	if err != nil {
		return nil, fmt.Errorf("store: scan %s: %w", lt.name, err)
	}
	var out []chunk.Chunk
	for _, record := range records {
		rows, err := decodeRecord(record)
		record.Release()
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (s *LanceDBStore) DeleteWhere(ctx context.Context, t Table, pred Predicate) (int, error) {
	lt, ok := t.(*lancedbTable)
	if !ok {
		return 0, fmt.Errorf("store: delete: wrong table handle type")
	}
	clause := whereClause(pred)
	if clause == "" {
		return 0, fmt.Errorf("store: delete_where requires at least one predicate")
	}
	before, err := lt.table.CountRows()
	if err != nil {
		return 0, fmt.Errorf("store: delete count before on %s: %w", lt.name, err)
	}
	if err := lt.table.Delete(clause); err != nil {
		return 0, fmt.Errorf("store: delete on %s: %w", lt.name, err)
	}
	after, err := lt.table.CountRows()
	if err != nil {
		return 0, fmt.Errorf("store: delete count after on %s: %w", lt.name, err)
	}
	return before - after, nil
}

func (s *LanceDBStore) Drop(ctx context.Context, kbName string) error {
	name := TableName(kbName, s.schemaVersion)

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[name]; ok {
		t.table.Close()
		delete(s.tables, name)
	}
	if err := s.conn.DropTable(name); err != nil {
		return fmt.Errorf("store: drop %s: %w", name, err)
	}
	return nil
}

func whereClause(pred Predicate) string {
	var clauses []string
	if !pred.IncludePlaceholders {
		clauses = append(clauses, "is_placeholder = false")
	}
	if pred.SourceKind != nil {
		clauses = append(clauses, fmt.Sprintf("source_kind = '%s'", escapeSQL(*pred.SourceKind)))
	}
	if pred.ExcludeTests {
		clauses = append(clauses, "is_test = false")
	}
	if pred.IngestionTS != nil {
		clauses = append(clauses, fmt.Sprintf("ingestion_ts = '%s'", escapeSQL(*pred.IngestionTS)))
	}
	return strings.Join(clauses, " AND ")
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func buildRecord(dim int, rows []chunk.Chunk) (arrow.Record, error) {
	pool := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(pool, arrowSchema(dim))
	defer builder.Release()

	idB := builder.Field(0).(*array.StringBuilder)
	contentB := builder.Field(1).(*array.StringBuilder)
	sourcePathB := builder.Field(2).(*array.StringBuilder)
	ordinalB := builder.Field(3).(*array.Int32Builder)
	tokenCountB := builder.Field(4).(*array.Int32Builder)
	chunkKindB := builder.Field(5).(*array.StringBuilder)
	headingPathB := builder.Field(6).(*array.StringBuilder)
	sourceKindB := builder.Field(7).(*array.StringBuilder)
	isTestB := builder.Field(8).(*array.BooleanBuilder)
	ingestionTSB := builder.Field(9).(*array.StringBuilder)
	kbNameB := builder.Field(10).(*array.StringBuilder)
	sourceRootB := builder.Field(11).(*array.StringBuilder)
	isPlaceholderB := builder.Field(12).(*array.BooleanBuilder)
	embeddingB := builder.Field(13).(*array.FixedSizeListBuilder)
	embeddingValueB := embeddingB.ValueBuilder().(*array.Float32Builder)

	for _, c := range rows {
		if len(c.Vector) != dim {
			return nil, fmt.Errorf("store: row %s has embedding dimension %d, table expects %d", c.ID, len(c.Vector), dim)
		}
		idB.Append(c.ID)
		contentB.Append(c.Content)
		sourcePathB.Append(c.SourcePath)
		ordinalB.Append(int32(c.Ordinal))
		tokenCountB.Append(int32(c.TokenCount))
		chunkKindB.Append(string(c.ChunkKind))
		headingJSON, err := json.Marshal(c.HeadingPath)
		if err != nil {
			return nil, fmt.Errorf("store: marshal heading_path for %s: %w", c.ID, err)
		}
		headingPathB.Append(string(headingJSON))
		sourceKindB.Append(c.SourceKind)
		isTestB.Append(c.IsTest)
		ingestionTSB.Append(c.IngestionTS)
		kbNameB.Append(c.KBName)
		sourceRootB.Append(c.SourceRoot)
		isPlaceholderB.Append(c.IsPlaceholder)

		embeddingB.Append(true)
		for _, v := range c.Vector {
			embeddingValueB.Append(v)
		}
	}

	return builder.NewRecord(), nil
}

func decodeRecord(record arrow.Record) ([]chunk.Chunk, error) {
	cols := make(map[string]arrow.Array, record.NumCols())
	for i, f := range record.Schema().Fields() {
		cols[f.Name] = record.Column(i)
	}

	str := func(name string, row int) string {
		if c, ok := cols[name].(*array.String); ok {
			return c.Value(row)
		}
		return ""
	}
	i32 := func(name string, row int) int32 {
		if c, ok := cols[name].(*array.Int32); ok {
			return c.Value(row)
		}
		return 0
	}
	b := func(name string, row int) bool {
		if c, ok := cols[name].(*array.Boolean); ok {
			return c.Value(row)
		}
		return false
	}

	n := int(record.NumRows())
	out := make([]chunk.Chunk, 0, n)
	for i := 0; i < n; i++ {
		var headingPath []string
		if raw := str("heading_path", i); raw != "" {
			_ = json.Unmarshal([]byte(raw), &headingPath)
		}
		out = append(out, chunk.Chunk{
			ID:            str("id", i),
			Content:       str("content", i),
			SourcePath:    str("source_path", i),
			Ordinal:       int(i32("ordinal", i)),
			TokenCount:    int(i32("token_count", i)),
			ChunkKind:     chunk.Kind(str("chunk_kind", i)),
			HeadingPath:   headingPath,
			SourceKind:    str("source_kind", i),
			IsTest:        b("is_test", i),
			IngestionTS:   str("ingestion_ts", i),
			KBName:        str("kb_name", i),
			SourceRoot:    str("source_root", i),
			IsPlaceholder: b("is_placeholder", i),
		})
	}
	return out, nil
}

// Placeholder builds the single synthetic row used to fix a new table's
// schema when a knowledgebase must exist with zero real chunks — LanceDB
// infers schema from the first insert, so an empty typed table cannot be
// created directly.
func Placeholder(kbName string, dim int, ingestionTS string) chunk.Chunk {
	return chunk.Chunk{
		ID:            fmt.Sprintf("%s_%s_placeholder", kbName, ingestionTS),
		Vector:        make([]float32, dim),
		Content:       "",
		SourcePath:    "",
		Ordinal:       0,
		TokenCount:    0,
		ChunkKind:     chunk.KindPlaceholder,
		HeadingPath:   nil,
		SourceKind:    "",
		IsTest:        false,
		IngestionTS:   ingestionTS,
		KBName:        kbName,
		SourceRoot:    "",
		IsPlaceholder: true,
	}
}
