// Package storage persists extracted symbols per document and answers
// substring searches over them.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// SymbolStore holds at most one generation of symbols per URI.
type SymbolStore interface {
	// ReplaceFile atomically swaps the symbols stored for file.URI.
	ReplaceFile(ctx context.Context, file IndexedFile, syms []symbols.Symbol) error

	// DeleteFile drops a file and its symbols. Unknown URIs are a no-op.
	DeleteFile(ctx context.Context, uri string) error

	// Find returns symbols whose name contains query, case-insensitively, in
	// insertion order. A limit <= 0 means no limit.
	Find(ctx context.Context, query string, limit int) ([]SymbolRecord, error)

	// FileSymbols returns the symbols stored for uri in insertion order.
	FileSymbols(ctx context.Context, uri string) ([]SymbolRecord, error)

	// GetFile returns (nil, nil) when uri is not indexed.
	GetFile(ctx context.Context, uri string) (*IndexedFile, error)

	ListFiles(ctx context.Context) ([]IndexedFile, error)
	Stats(ctx context.Context) (*StoreStats, error)
	Close() error
}

// Config selects and locates a backend.
type Config struct {
	Backend string
	// Path is the SQLite database file. Empty or ":memory:" keeps the
	// database in memory.
	Path string
}

// Open creates the store described by cfg.
func Open(cfg Config) (SymbolStore, error) {
	switch cfg.Backend {
	case "", BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case BackendMemory:
		return NewMemoryStore()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
