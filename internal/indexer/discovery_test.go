package indexer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileDiscovery:
// - Default patterns find .coffee files at the root and in subdirectories
// - Default ignores skip node_modules, .git, dist, build and the state directory
// - Custom code and ignore patterns replace the defaults
// - An explicitly empty ignore list disables the default ignores
// - MatchesPath rejects paths outside the root
// - Invalid patterns are reported

func TestFileDiscovery_Defaults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	WriteTestFiles(t, root, map[string]string{
		"app.coffee":                  "",
		"lib/util.coffee":             "",
		"lib/deep/nested.coffee":      "",
		"lib/notes.txt":               "",
		"node_modules/pkg/dep.coffee": "",
		".git/hooks/x.coffee":         "",
		"dist/app.coffee":             "",
		"build/app.coffee":            "",
		".coffee-symbols/x.coffee":    "",
	})

	fd, err := NewFileDiscovery(root, nil, nil)
	require.NoError(t, err)

	files, err := fd.DiscoverFiles()
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"app.coffee", "lib/deep/nested.coffee", "lib/util.coffee"}, rel)
}

func TestFileDiscovery_CustomPatterns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	WriteTestFiles(t, root, map[string]string{
		"src/a.coffee":          "",
		"src/b.litcoffee":       "",
		"test/a_test.coffee":    "",
		"node_modules/x.coffee": "",
	})

	fd, err := NewFileDiscovery(root, []string{"src/**.coffee", "src/*.litcoffee"}, []string{"test/**"})
	require.NoError(t, err)
	files, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Len(t, files, 2)

	fd, err = NewFileDiscovery(root, nil, []string{})
	require.NoError(t, err)
	files, err = fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Len(t, files, 3, "empty ignore list walks node_modules")
}

func TestFileDiscovery_MatchesPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fd, err := NewFileDiscovery(root, nil, nil)
	require.NoError(t, err)

	assert.True(t, fd.MatchesPath(filepath.Join(root, "a.coffee")))
	assert.True(t, fd.MatchesPath(filepath.Join(root, "x", "y", "a.coffee")))
	assert.False(t, fd.MatchesPath(filepath.Join(root, "a.js")))
	assert.False(t, fd.MatchesPath(filepath.Join(root, "node_modules", "a.coffee")))
	assert.False(t, fd.MatchesPath(filepath.Join(filepath.Dir(root), "a.coffee")))
	assert.True(t, fd.ownsPath(filepath.Join(root, "README.md")))
	assert.False(t, fd.ownsPath(filepath.Dir(root)))
}

func TestFileDiscovery_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewFileDiscovery(t.TempDir(), []string{"[unclosed"}, nil)
	assert.Error(t, err)
}

func TestFileDiscovery_IgnoresDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fd, err := NewFileDiscovery(root, nil, nil)
	require.NoError(t, err)

	assert.False(t, fd.IgnoresDir(root))
	assert.False(t, fd.IgnoresDir(filepath.Join(root, "lib")))
	assert.True(t, fd.IgnoresDir(filepath.Join(root, "node_modules")))
	assert.True(t, fd.IgnoresDir(filepath.Join(root, ".coffee-symbols")))
	assert.True(t, fd.IgnoresDir(filepath.Dir(root)))
}
