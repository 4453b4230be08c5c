package config

import (
	"path/filepath"

	"github.com/mvp-joe/coffee-symbols/internal/indexer"
	"github.com/mvp-joe/coffee-symbols/internal/storage"
	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

// ToIndexerOptions converts the indexer section to indexer.Options.
func (c *Config) ToIndexerOptions() indexer.Options {
	opts := indexer.DefaultOptions()
	if c.Indexer.Workers > 0 {
		opts.Workers = c.Indexer.Workers
	}
	opts.ExportsOnly = c.Indexer.ExportsOnly
	opts.Symbols = symbols.Options{
		IncludeClosures:  c.Indexer.IncludeClosures,
		Constructors:     symbols.ConstructorByName,
		AssignmentSuffix: c.Indexer.AssignmentSuffix,
	}
	if c.Indexer.ConstructorRule == ConstructorRuleMethod {
		opts.Symbols.Constructors = symbols.ConstructorAsMethod
	}
	return opts
}

// ToStorageConfig resolves the storage section against rootDir. The memory
// backend ignores the path.
func (c *Config) ToStorageConfig(rootDir string) storage.Config {
	path := c.Storage.DBPath
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(rootDir, path)
	}
	return storage.Config{Backend: c.Storage.Backend, Path: path}
}

// ToFileDiscovery builds the discovery rules for rootDir.
func (c *Config) ToFileDiscovery(rootDir string) (*indexer.FileDiscovery, error) {
	return indexer.NewFileDiscovery(rootDir, c.Paths.Code, c.Paths.Ignore)
}
