package storage

import (
	"fmt"
	"time"

	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

// IndexedFile is the bookkeeping row for one indexed document. A file has at
// most one live generation of symbols.
type IndexedFile struct {
	URI         string    `json:"uri"`
	ContentHash string    `json:"content_hash"`
	SymbolCount int       `json:"symbol_count"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// SymbolRecord is a stored symbol together with the document it came from.
type SymbolRecord struct {
	URI      string         `json:"uri"`
	Location string         `json:"location"` // uri:line:col of the range start
	Symbol   symbols.Symbol `json:"symbol"`
}

// StoreStats summarizes store contents.
type StoreStats struct {
	Backend string `json:"backend"`
	Files   int    `json:"files"`
	Symbols int    `json:"symbols"`
}

// LocationOf builds the location descriptor for a symbol in uri.
func LocationOf(uri string, s symbols.Symbol) string {
	return fmt.Sprintf("%s:%d:%d", uri, s.Range.Start.Line, s.Range.Start.Character)
}

func newRecord(uri string, s symbols.Symbol) SymbolRecord {
	return SymbolRecord{URI: uri, Location: LocationOf(uri, s), Symbol: s}
}
