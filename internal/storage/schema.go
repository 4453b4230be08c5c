package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is bumped whenever the table layout changes. Stores with a
// different version are rebuilt since their content can be re-derived.
const SchemaVersion = "1"

// CreateSchema creates all tables and indexes in one transaction and records
// the schema version. Requires PRAGMA foreign_keys = ON on the connection for
// cascade deletes to work.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	tables := []struct {
		name string
		ddl  string
	}{
		{"indexed_files", createIndexedFilesTable},
		{"symbols", createSymbolsTable},
		{"store_metadata", createStoreMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		"INSERT INTO store_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)",
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap store_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// DropSchema removes every table created by CreateSchema.
func DropSchema(db *sql.DB) error {
	for _, table := range []string{"symbols", "indexed_files", "store_metadata"} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("failed to drop %s table: %w", table, err)
		}
	}
	return nil
}

// GetSchemaVersion returns "0" for a database without store_metadata.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='store_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check store_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM store_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in store_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// ensureSchema creates the schema on a fresh database and rebuilds it when the
// stored version is stale.
func ensureSchema(db *sql.DB) error {
	version, err := GetSchemaVersion(db)
	if err != nil {
		return err
	}
	switch version {
	case SchemaVersion:
		return nil
	case "0":
	default:
		if err := DropSchema(db); err != nil {
			return err
		}
	}
	return CreateSchema(db)
}

const createIndexedFilesTable = `
CREATE TABLE indexed_files (
    uri TEXT PRIMARY KEY,
    content_hash TEXT NOT NULL,
    symbol_count INTEGER NOT NULL DEFAULT 0,
    indexed_at TEXT NOT NULL
)`

const createSymbolsTable = `
CREATE TABLE symbols (
    id INTEGER PRIMARY KEY AUTOINCREMENT,        -- Insertion order
    uri TEXT NOT NULL REFERENCES indexed_files(uri) ON DELETE CASCADE,
    location TEXT NOT NULL,                      -- uri:line:col
    name TEXT NOT NULL,
    searchable_name TEXT NOT NULL,               -- Lowercased name
    kind INTEGER NOT NULL,
    container_name TEXT NOT NULL DEFAULT '',
    start_line INTEGER NOT NULL,
    start_col INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    end_col INTEGER NOT NULL
)`

const createStoreMetadataTable = `
CREATE TABLE store_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

var indexes = []string{
	"CREATE INDEX idx_symbols_uri ON symbols(uri)",
	"CREATE INDEX idx_symbols_searchable_name ON symbols(searchable_name)",
}
