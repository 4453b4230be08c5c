package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/coffee-symbols/internal/storage"
)

var (
	// ErrInvalidPattern indicates a glob that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidConstructorRule indicates an unknown constructor rule
	ErrInvalidConstructorRule = errors.New("invalid constructor rule")

	// ErrInvalidBackend indicates an unsupported storage backend
	ErrInvalidBackend = errors.New("invalid storage backend")

	// ErrInvalidDBPath indicates a SQLite backend without a database path
	ErrInvalidDBPath = errors.New("invalid database path")

	// ErrInvalidDebounce indicates a negative watcher debounce
	ErrInvalidDebounce = errors.New("invalid debounce")

	// ErrInvalidCacheSize indicates a non-positive LSP cache size
	ErrInvalidCacheSize = errors.New("invalid cache size")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}
	if err := validateIndexer(&cfg.Indexer); err != nil {
		errs = append(errs, err)
	}
	if err := validateStorage(&cfg.Storage); err != nil {
		errs = append(errs, err)
	}
	if cfg.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidDebounce, cfg.Watch.DebounceMS))
	}
	if cfg.LSP.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size must be positive, got %d", ErrInvalidCacheSize, cfg.LSP.CacheSize))
	}

	return joinErrors(errs)
}

// validatePaths is lenient about empty lists; discovery falls back to its
// defaults.
func validatePaths(cfg *PathsConfig) error {
	var errs []error
	for _, pattern := range append(append([]string(nil), cfg.Code...), cfg.Ignore...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}
	return joinErrors(errs)
}

func validateIndexer(cfg *IndexerConfig) error {
	var errs []error

	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	switch strings.ToLower(cfg.ConstructorRule) {
	case ConstructorRuleName, ConstructorRuleMethod:
		cfg.ConstructorRule = strings.ToLower(cfg.ConstructorRule)
	default:
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'",
			ErrInvalidConstructorRule, ConstructorRuleName, ConstructorRuleMethod, cfg.ConstructorRule))
	}

	return joinErrors(errs)
}

func validateStorage(cfg *StorageConfig) error {
	switch strings.ToLower(cfg.Backend) {
	case storage.BackendSQLite:
		cfg.Backend = storage.BackendSQLite
		if strings.TrimSpace(cfg.DBPath) == "" {
			return fmt.Errorf("%w: db_path is required for the sqlite backend", ErrInvalidDBPath)
		}
	case storage.BackendMemory:
		cfg.Backend = storage.BackendMemory
	default:
		return fmt.Errorf("%w: must be '%s' or '%s', got '%s'",
			ErrInvalidBackend, storage.BackendSQLite, storage.BackendMemory, cfg.Backend)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// Sentinels stay reachable through errors.Is.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return &validationErrors{errs: errs}
}

type validationErrors struct {
	errs []error
}

func (v *validationErrors) Error() string {
	msgs := make([]string, 0, len(v.errs))
	for _, err := range v.errs {
		msgs = append(msgs, err.Error())
	}
	return "validation failed:\n  - " + strings.Join(msgs, "\n  - ")
}

func (v *validationErrors) Unwrap() []error {
	return v.errs
}
