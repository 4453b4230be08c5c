package config

import (
	"path/filepath"
	"time"

	"github.com/mvp-joe/coffee-symbols/internal/indexer"
	"github.com/mvp-joe/coffee-symbols/internal/storage"
)

// StateDir is the per-project directory holding config.yml and the database.
const StateDir = ".coffee-symbols"

// Constructor rule names accepted in indexer.constructor_rule.
const (
	ConstructorRuleName   = "name"
	ConstructorRuleMethod = "method"
)

// Config represents the complete coffee-symbols configuration.
// It can be loaded from .coffee-symbols/config.yml with environment variable overrides.
type Config struct {
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Indexer IndexerConfig `yaml:"indexer" mapstructure:"indexer"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
	LSP     LSPConfig     `yaml:"lsp" mapstructure:"lsp"`
}

// PathsConfig defines which files to index and which to ignore.
type PathsConfig struct {
	Code   []string `yaml:"code" mapstructure:"code"`     // glob patterns for source files
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to ignore
}

// IndexerConfig controls extraction for stored symbols.
type IndexerConfig struct {
	Workers          int    `yaml:"workers" mapstructure:"workers"` // 0 means one per CPU
	IncludeClosures  bool   `yaml:"include_closures" mapstructure:"include_closures"`
	ExportsOnly      bool   `yaml:"exports_only" mapstructure:"exports_only"`
	ConstructorRule  string `yaml:"constructor_rule" mapstructure:"constructor_rule"` // "name" or "method"
	AssignmentSuffix bool   `yaml:"assignment_suffix" mapstructure:"assignment_suffix"`
}

// StorageConfig selects the symbol store.
type StorageConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // "sqlite" or "memory"
	DBPath  string `yaml:"db_path" mapstructure:"db_path"` // relative paths resolve against the project root
}

// WatchConfig tunes the file watcher.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// LSPConfig tunes the language server.
type LSPConfig struct {
	CacheSize int `yaml:"cache_size" mapstructure:"cache_size"` // cached document outlines
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Code:   append([]string(nil), indexer.DefaultCodePatterns...),
			Ignore: append([]string(nil), indexer.DefaultIgnorePatterns...),
		},
		Indexer: IndexerConfig{
			Workers:          0,
			IncludeClosures:  false,
			ExportsOnly:      false,
			ConstructorRule:  ConstructorRuleName,
			AssignmentSuffix: true,
		},
		Storage: StorageConfig{
			Backend: storage.BackendSQLite,
			DBPath:  filepath.Join(StateDir, "symbols.db"),
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		LSP: LSPConfig{
			CacheSize: 256,
		},
	}
}

// Debounce returns the watcher quiet period.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}
