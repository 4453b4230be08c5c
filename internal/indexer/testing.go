package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/coffee-symbols/internal/storage"
)

// NewTestService creates a Service over an in-memory SQLite store.
func NewTestService(t testing.TB, opts Options) *Service {
	t.Helper()
	return NewService(storage.NewTestStore(t), opts)
}

// WriteTestFiles writes files (relative path -> content) under dir and
// returns their absolute paths keyed by relative path.
func WriteTestFiles(t testing.TB, dir string, files map[string]string) map[string]string {
	t.Helper()

	paths := make(map[string]string, len(files))
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		paths[rel] = path
	}
	return paths
}
