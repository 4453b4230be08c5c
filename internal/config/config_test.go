package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/coffee-symbols/internal/indexer"
	"github.com/mvp-joe/coffee-symbols/internal/storage"
	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

// Test Plan for Config System:
// - Default() returns a valid configuration with the expected defaults
// - Load() uses defaults when no config file exists
// - Load() reads .coffee-symbols/config.yml and .coffee-symbols/config.yaml
// - Load() merges a partial file with defaults
// - Environment variables override file values and defaults
// - An explicit config file must exist
// - Malformed YAML and invalid values are reported
// - Validate() rejects each invalid field with its sentinel error
// - Validate() reports several invalid fields at once
// - Conversions produce indexer options, storage config and discovery rules

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	stateDir := filepath.Join(dir, StateDir)
	require.NoError(t, os.MkdirAll(stateDir, 0755))
	path := filepath.Join(stateDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"**/*.coffee"}, cfg.Paths.Code)
	assert.Contains(t, cfg.Paths.Ignore, "node_modules/**")
	assert.Equal(t, 0, cfg.Indexer.Workers)
	assert.False(t, cfg.Indexer.IncludeClosures)
	assert.False(t, cfg.Indexer.ExportsOnly)
	assert.Equal(t, ConstructorRuleName, cfg.Indexer.ConstructorRule)
	assert.True(t, cfg.Indexer.AssignmentSuffix)
	assert.Equal(t, storage.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(".coffee-symbols", "symbols.db"), cfg.Storage.DBPath)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 256, cfg.LSP.CacheSize)

	assert.NoError(t, Validate(cfg))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	for _, name := range []string{"config.yml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, name, `
paths:
  code:
    - "src/**.coffee"
  ignore:
    - "vendor/**"
indexer:
  workers: 3
  include_closures: true
  exports_only: true
  constructor_rule: method
  assignment_suffix: false
storage:
  backend: memory
watch:
  debounce_ms: 100
lsp:
  cache_size: 10
`)
			cfg, err := NewLoader(dir).Load()
			require.NoError(t, err)

			assert.Equal(t, []string{"src/**.coffee"}, cfg.Paths.Code)
			assert.Equal(t, []string{"vendor/**"}, cfg.Paths.Ignore)
			assert.Equal(t, IndexerConfig{
				Workers:          3,
				IncludeClosures:  true,
				ExportsOnly:      true,
				ConstructorRule:  ConstructorRuleMethod,
				AssignmentSuffix: false,
			}, cfg.Indexer)
			assert.Equal(t, storage.BackendMemory, cfg.Storage.Backend)
			assert.Equal(t, 100*time.Millisecond, cfg.Debounce())
			assert.Equal(t, 10, cfg.LSP.CacheSize)
		})
	}
}

func TestLoad_MergesWithDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "indexer:\n  exports_only: true\n")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	want := Default()
	want.Indexer.ExportsOnly = true
	assert.Equal(t, want, cfg)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "storage:\n  backend: sqlite\nindexer:\n  workers: 2\n")

	t.Setenv("COFFEE_SYMBOLS_STORAGE_BACKEND", "memory")
	t.Setenv("COFFEE_SYMBOLS_INDEXER_WORKERS", "7")
	t.Setenv("COFFEE_SYMBOLS_INDEXER_INCLUDE_CLOSURES", "true")
	t.Setenv("COFFEE_SYMBOLS_LSP_CACHE_SIZE", "32")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, storage.BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 7, cfg.Indexer.Workers)
	assert.True(t, cfg.Indexer.IncludeClosures)
	assert.Equal(t, 32, cfg.LSP.CacheSize)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("watch:\n  debounce_ms: 20\n"), 0644))

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, cfg.Debounce())

	_, err = NewFileLoader(filepath.Join(dir, "missing.yml")).Load()
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "indexer: [unclosed")
	_, err := NewLoader(dir).Load()
	assert.ErrorContains(t, err, "failed to read config file")

	dir = t.TempDir()
	writeConfig(t, dir, "config.yml", "storage:\n  backend: postgres\n")
	_, err = NewLoader(dir).Load()
	assert.ErrorIs(t, err, ErrInvalidBackend)
}

func TestValidate_RejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"bad pattern", func(c *Config) { c.Paths.Code = []string{"[oops"} }, ErrInvalidPattern},
		{"bad ignore", func(c *Config) { c.Paths.Ignore = []string{"{a"} }, ErrInvalidPattern},
		{"negative workers", func(c *Config) { c.Indexer.Workers = -1 }, ErrInvalidWorkers},
		{"constructor rule", func(c *Config) { c.Indexer.ConstructorRule = "ctor" }, ErrInvalidConstructorRule},
		{"backend", func(c *Config) { c.Storage.Backend = "redis" }, ErrInvalidBackend},
		{"sqlite without path", func(c *Config) { c.Storage.DBPath = " " }, ErrInvalidDBPath},
		{"debounce", func(c *Config) { c.Watch.DebounceMS = -5 }, ErrInvalidDebounce},
		{"cache size", func(c *Config) { c.LSP.CacheSize = 0 }, ErrInvalidCacheSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_NormalizesCase(t *testing.T) {
	cfg := Default()
	cfg.Indexer.ConstructorRule = "Method"
	cfg.Storage.Backend = "MEMORY"
	cfg.Storage.DBPath = ""

	require.NoError(t, Validate(cfg))
	assert.Equal(t, ConstructorRuleMethod, cfg.Indexer.ConstructorRule)
	assert.Equal(t, storage.BackendMemory, cfg.Storage.Backend)
}

func TestValidate_ReturnsMultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Indexer.Workers = -1
	cfg.Storage.Backend = "nope"
	cfg.LSP.CacheSize = -1

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.ErrorIs(t, err, ErrInvalidWorkers)
	assert.ErrorIs(t, err, ErrInvalidBackend)
	assert.ErrorIs(t, err, ErrInvalidCacheSize)
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Indexer.Workers = 2
	cfg.Indexer.ExportsOnly = true
	cfg.Indexer.ConstructorRule = ConstructorRuleMethod

	opts := cfg.ToIndexerOptions()
	assert.Equal(t, 2, opts.Workers)
	assert.True(t, opts.ExportsOnly)
	assert.False(t, opts.Force)
	assert.Equal(t, symbols.Options{
		IncludeClosures:  false,
		Constructors:     symbols.ConstructorAsMethod,
		AssignmentSuffix: true,
	}, opts.Symbols)

	cfg.Indexer.Workers = 0
	assert.Equal(t, indexer.DefaultOptions().Workers, cfg.ToIndexerOptions().Workers)

	root := t.TempDir()
	assert.Equal(t, storage.Config{
		Backend: storage.BackendSQLite,
		Path:    filepath.Join(root, ".coffee-symbols", "symbols.db"),
	}, cfg.ToStorageConfig(root))

	cfg.Storage.DBPath = "/abs/symbols.db"
	assert.Equal(t, "/abs/symbols.db", cfg.ToStorageConfig(root).Path)

	fd, err := cfg.ToFileDiscovery(root)
	require.NoError(t, err)
	assert.Equal(t, root, fd.Root())
}
