package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. COFFEE_SYMBOLS_STORAGE_BACKEND.
const EnvPrefix = "COFFEE_SYMBOLS"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a loader that looks for .coffee-symbols/config.yml
// under rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader for an explicit config file, which must
// exist.
func NewFileLoader(configFile string) Loader {
	return &loader{configFile: configFile}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (COFFEE_SYMBOLS_*)
// 2. Config file (.coffee-symbols/config.yml or .coffee-symbols/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, StateDir))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"indexer.workers",
		"indexer.include_closures",
		"indexer.exports_only",
		"indexer.constructor_rule",
		"indexer.assignment_suffix",
		"storage.backend",
		"storage.db_path",
		"watch.debounce_ms",
		"lsp.cache_size",
	} {
		_ = v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.code", defaults.Paths.Code)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("indexer.workers", defaults.Indexer.Workers)
	v.SetDefault("indexer.include_closures", defaults.Indexer.IncludeClosures)
	v.SetDefault("indexer.exports_only", defaults.Indexer.ExportsOnly)
	v.SetDefault("indexer.constructor_rule", defaults.Indexer.ConstructorRule)
	v.SetDefault("indexer.assignment_suffix", defaults.Indexer.AssignmentSuffix)

	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("storage.db_path", defaults.Storage.DBPath)

	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)
	v.SetDefault("lsp.cache_size", defaults.LSP.CacheSize)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
