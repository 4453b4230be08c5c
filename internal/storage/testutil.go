package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory SQLite database with foreign keys enabled
// and the full schema. Cleanup is registered with t.Cleanup().
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    db := storage.NewTestDB(t)
//	    store, err := storage.NewSQLiteStoreWithDB(db)
//	    // ...
//	}
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db := NewTestDBMinimal(t)
	require.NoError(t, CreateSchema(db))
	return db
}

// NewTestDBMinimal creates an in-memory SQLite database without schema, for
// tests of schema creation itself.
func NewTestDBMinimal(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	return db
}

// NewTestStore creates an in-memory SQLiteStore closed on cleanup.
func NewTestStore(t testing.TB) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// NewTestStoreFile creates a file-backed SQLiteStore in t.TempDir().
func NewTestStoreFile(t testing.TB) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "symbols.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}
