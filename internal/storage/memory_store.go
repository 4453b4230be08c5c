package storage

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

var storedSymbolFields = []string{
	"uri", "location", "name", "kind", "container_name",
	"start_line", "start_col", "end_line", "end_col", "seq",
}

// MemoryStore is a SymbolStore backed by an in-memory bleve index. Nothing
// survives Close.
type MemoryStore struct {
	index bleve.Index

	mu    sync.RWMutex // Serializes writes against searches and guards files/docs
	files map[string]IndexedFile
	docs  map[string][]string // uri -> document IDs
	seq   uint64
}

var _ SymbolStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() (*MemoryStore, error) {
	index, err := bleve.NewMemOnly(buildSymbolMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &MemoryStore{
		index: index,
		files: make(map[string]IndexedFile),
		docs:  make(map[string][]string),
	}, nil
}

// buildSymbolMapping indexes only what queries filter or sort on; the rest
// is stored for reconstruction.
func buildSymbolMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	keyword := func() *mapping.FieldMapping {
		m := bleve.NewKeywordFieldMapping()
		m.Store = true
		m.Index = true
		return m
	}
	stored := func() *mapping.FieldMapping {
		m := bleve.NewTextFieldMapping()
		m.Analyzer = "keyword"
		m.Store = true
		m.Index = false
		return m
	}
	number := func() *mapping.FieldMapping {
		m := bleve.NewNumericFieldMapping()
		m.Store = true
		m.Index = true
		return m
	}

	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false
	docMapping.AddFieldMappingsAt("uri", keyword())
	docMapping.AddFieldMappingsAt("searchable_name", keyword())
	docMapping.AddFieldMappingsAt("location", stored())
	docMapping.AddFieldMappingsAt("name", stored())
	docMapping.AddFieldMappingsAt("container_name", stored())
	docMapping.AddFieldMappingsAt("kind", number())
	docMapping.AddFieldMappingsAt("start_line", number())
	docMapping.AddFieldMappingsAt("start_col", number())
	docMapping.AddFieldMappingsAt("end_line", number())
	docMapping.AddFieldMappingsAt("end_col", number())
	docMapping.AddFieldMappingsAt("seq", number())

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func symbolDocument(uri string, s symbols.Symbol, seq uint64) map[string]interface{} {
	return map[string]interface{}{
		"uri":             uri,
		"searchable_name": strings.ToLower(s.Name),
		"location":        LocationOf(uri, s),
		"name":            s.Name,
		"container_name":  s.ContainerName,
		"kind":            float64(s.Kind),
		"start_line":      float64(s.Range.Start.Line),
		"start_col":       float64(s.Range.Start.Character),
		"end_line":        float64(s.Range.End.Line),
		"end_col":         float64(s.Range.End.Character),
		"seq":             float64(seq),
	}
}

// ReplaceFile deletes the old documents of file.URI and indexes the new ones
// in one bleve batch.
func (m *MemoryStore) ReplaceFile(ctx context.Context, file IndexedFile, syms []symbols.Symbol) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	batch := m.index.NewBatch()
	for _, id := range m.docs[file.URI] {
		batch.Delete(id)
	}

	ids := make([]string, 0, len(syms))
	seq := m.seq
	for _, s := range syms {
		seq++
		id := strconv.FormatUint(seq, 10)
		if err := batch.Index(id, symbolDocument(file.URI, s, seq)); err != nil {
			return fmt.Errorf("failed to add symbol %s to batch: %w", s.Name, err)
		}
		ids = append(ids, id)
	}

	if err := m.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to replace symbols for %s: %w", file.URI, err)
	}

	if file.IndexedAt.IsZero() {
		file.IndexedAt = time.Now()
	}
	file.SymbolCount = len(syms)
	m.seq = seq
	m.files[file.URI] = file
	m.docs[file.URI] = ids
	return nil
}

// DeleteFile removes every document of uri.
func (m *MemoryStore) DeleteFile(ctx context.Context, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids, ok := m.docs[uri]
	if !ok {
		return nil
	}
	batch := m.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := m.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", uri, err)
	}
	delete(m.docs, uri)
	delete(m.files, uri)
	return nil
}

// Find runs an anchored regexp over the keyword-analyzed lowercase names. The
// query is quoted so every character matches literally.
func (m *MemoryStore) Find(ctx context.Context, q string, limit int) ([]SymbolRecord, error) {
	re := bleve.NewRegexpQuery(".*" + regexp.QuoteMeta(strings.ToLower(q)) + ".*")
	re.SetField("searchable_name")
	return m.search(ctx, re, limit)
}

// FileSymbols returns the documents of uri.
func (m *MemoryStore) FileSymbols(ctx context.Context, uri string) ([]SymbolRecord, error) {
	term := bleve.NewTermQuery(uri)
	term.SetField("uri")
	return m.search(ctx, term, 0)
}

// search holds the read lock so an unlimited request is sized from the same
// generation it reads.
func (m *MemoryStore) search(ctx context.Context, q query.Query, limit int) ([]SymbolRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := limit
	if size <= 0 {
		count, err := m.index.DocCount()
		if err != nil {
			return nil, fmt.Errorf("failed to count documents: %w", err)
		}
		size = int(count)
	}
	if size == 0 {
		return []SymbolRecord{}, nil
	}

	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.SortBy([]string{"seq"})
	req.Fields = storedSymbolFields

	result, err := m.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	records := make([]SymbolRecord, 0, len(result.Hits))
	for _, hit := range result.Hits {
		records = append(records, recordFromFields(hit.Fields))
	}
	return records, nil
}

func recordFromFields(fields map[string]interface{}) SymbolRecord {
	str := func(name string) string {
		v, _ := fields[name].(string)
		return v
	}
	num := func(name string) int {
		v, _ := fields[name].(float64)
		return int(v)
	}
	return SymbolRecord{
		URI:      str("uri"),
		Location: str("location"),
		Symbol: symbols.Symbol{
			Name:          str("name"),
			Kind:          symbols.Kind(num("kind")),
			ContainerName: str("container_name"),
			Range:         symbols.NewRange(num("start_line"), num("start_col"), num("end_line"), num("end_col")),
		},
	}
}

// GetFile returns the bookkeeping entry for uri, or (nil, nil).
func (m *MemoryStore) GetFile(_ context.Context, uri string) (*IndexedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[uri]
	if !ok {
		return nil, nil
	}
	return &file, nil
}

// ListFiles returns every indexed file ordered by URI.
func (m *MemoryStore) ListFiles(_ context.Context) ([]IndexedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]IndexedFile, 0, len(m.files))
	for _, f := range m.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].URI < files[j].URI })
	return files, nil
}

// Stats counts files and symbol documents.
func (m *MemoryStore) Stats(_ context.Context) (*StoreStats, error) {
	count, err := m.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return &StoreStats{Backend: BackendMemory, Files: len(m.files), Symbols: int(count)}, nil
}

// Close releases the index.
func (m *MemoryStore) Close() error {
	return m.index.Close()
}
