package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

const memoryPath = ":memory:"

// insertBatchSize bounds rows per INSERT so statements stay under SQLite's
// host parameter limit.
const insertBatchSize = 500

var symbolColumns = []string{
	"uri", "location", "name", "searchable_name", "kind", "container_name",
	"start_line", "start_col", "end_line", "end_col",
}

// SQLiteStore is the default SymbolStore, backed by a SQLite database file or
// an in-memory database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ SymbolStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path. An empty
// path or ":memory:" opens a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	inMemory := path == "" || path == memoryPath
	dsn := memoryPath + "?_foreign_keys=on"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}

	s, err := NewSQLiteStoreWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if !inMemory {
		s.path = path
	}
	return s, nil
}

// NewSQLiteStoreWithDB wraps an open connection, creating the schema if it is
// missing. The store takes ownership of db.
func NewSQLiteStoreWithDB(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}
	return &SQLiteStore{db: db, path: memoryPath}, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// ReplaceFile deletes the previous generation of file.URI (cascading to its
// symbols) and inserts the new one in a single transaction.
func (s *SQLiteStore) ReplaceFile(ctx context.Context, file IndexedFile, syms []symbols.Symbol) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := sq.Delete("indexed_files").
		Where(sq.Eq{"uri": file.URI}).
		RunWith(tx).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to delete previous symbols for %s: %w", file.URI, err)
	}

	indexedAt := file.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now()
	}
	if _, err := sq.Insert("indexed_files").
		Columns("uri", "content_hash", "symbol_count", "indexed_at").
		Values(file.URI, file.ContentHash, len(syms), indexedAt.UTC().Format(time.RFC3339Nano)).
		RunWith(tx).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to insert file %s: %w", file.URI, err)
	}

	for start := 0; start < len(syms); start += insertBatchSize {
		end := min(start+insertBatchSize, len(syms))
		insert := sq.Insert("symbols").Columns(symbolColumns...)
		for _, sym := range syms[start:end] {
			insert = insert.Values(
				file.URI,
				LocationOf(file.URI, sym),
				sym.Name,
				strings.ToLower(sym.Name),
				int(sym.Kind),
				sym.ContainerName,
				sym.Range.Start.Line,
				sym.Range.Start.Character,
				sym.Range.End.Line,
				sym.Range.End.Character,
			)
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to insert symbols for %s: %w", file.URI, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit symbols for %s: %w", file.URI, err)
	}
	return nil
}

// DeleteFile removes uri and, through the foreign key, its symbols.
func (s *SQLiteStore) DeleteFile(ctx context.Context, uri string) error {
	if _, err := sq.Delete("indexed_files").
		Where(sq.Eq{"uri": uri}).
		RunWith(s.db).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", uri, err)
	}
	return nil
}

// Find matches query against the lowercased names. LIKE wildcards in query
// are matched literally.
func (s *SQLiteStore) Find(ctx context.Context, query string, limit int) ([]SymbolRecord, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	q := sq.Select(symbolColumns...).
		From("symbols").
		Where(`searchable_name LIKE ? ESCAPE '\'`, pattern).
		OrderBy("id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find symbols: %w", err)
	}
	defer rows.Close()
	return scanSymbolRecords(rows)
}

// FileSymbols returns the stored symbols of uri.
func (s *SQLiteStore) FileSymbols(ctx context.Context, uri string) ([]SymbolRecord, error) {
	rows, err := sq.Select(symbolColumns...).
		From("symbols").
		Where(sq.Eq{"uri": uri}).
		OrderBy("id").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols for %s: %w", uri, err)
	}
	defer rows.Close()
	return scanSymbolRecords(rows)
}

// GetFile returns the bookkeeping row for uri, or (nil, nil).
func (s *SQLiteStore) GetFile(ctx context.Context, uri string) (*IndexedFile, error) {
	row := sq.Select("uri", "content_hash", "symbol_count", "indexed_at").
		From("indexed_files").
		Where(sq.Eq{"uri": uri}).
		RunWith(s.db).
		QueryRowContext(ctx)

	file, err := scanIndexedFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", uri, err)
	}
	return file, nil
}

// ListFiles returns every indexed file ordered by URI.
func (s *SQLiteStore) ListFiles(ctx context.Context) ([]IndexedFile, error) {
	rows, err := sq.Select("uri", "content_hash", "symbol_count", "indexed_at").
		From("indexed_files").
		OrderBy("uri").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	files := []IndexedFile{}
	for rows.Next() {
		file, err := scanIndexedFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, *file)
	}
	return files, rows.Err()
}

// Stats counts files and symbols.
func (s *SQLiteStore) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{Backend: BackendSQLite}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM indexed_files").Scan(&stats.Files); err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbols").Scan(&stats.Symbols); err != nil {
		return nil, fmt.Errorf("failed to count symbols: %w", err)
	}
	return stats, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanIndexedFile(row sq.RowScanner) (*IndexedFile, error) {
	var file IndexedFile
	var indexedAt string
	if err := row.Scan(&file.URI, &file.ContentHash, &file.SymbolCount, &indexedAt); err != nil {
		return nil, err
	}
	file.IndexedAt, _ = time.Parse(time.RFC3339Nano, indexedAt)
	return &file, nil
}

func scanSymbolRecords(rows *sql.Rows) ([]SymbolRecord, error) {
	records := []SymbolRecord{}
	for rows.Next() {
		var r SymbolRecord
		var searchable string
		var kind int
		if err := rows.Scan(
			&r.URI,
			&r.Location,
			&r.Symbol.Name,
			&searchable,
			&kind,
			&r.Symbol.ContainerName,
			&r.Symbol.Range.Start.Line,
			&r.Symbol.Range.Start.Character,
			&r.Symbol.Range.End.Line,
			&r.Symbol.Range.End.Character,
		); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		r.Symbol.Kind = symbols.Kind(kind)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate symbols: %w", err)
	}
	return records, nil
}
