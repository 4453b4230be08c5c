package cli

import (
	"fmt"
	"os"

	"github.com/mvp-joe/coffee-symbols/internal/config"
	"github.com/mvp-joe/coffee-symbols/internal/indexer"
	"github.com/mvp-joe/coffee-symbols/internal/storage"
)

// environment bundles what every store-backed command needs.
type environment struct {
	rootDir string
	cfg     *config.Config
	store   storage.SymbolStore
	service *indexer.Service
}

// loadConfig reads --config when given, otherwise the project config under
// rootDir.
func loadConfig(rootDir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.NewFileLoader(cfgFile).Load()
	} else {
		cfg, err = config.LoadConfigFromDir(rootDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// openEnvironment loads configuration and opens the store for rootDir. An
// empty rootDir means the working directory.
func openEnvironment(rootDir string, force bool) (*environment, error) {
	if rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		rootDir = wd
	}

	cfg, err := loadConfig(rootDir)
	if err != nil {
		return nil, err
	}

	storeCfg := cfg.ToStorageConfig(rootDir)
	store, err := storage.Open(storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", storeCfg.Backend, err)
	}
	debugf("Using %s store %s", storeCfg.Backend, storeCfg.Path)

	opts := cfg.ToIndexerOptions()
	opts.Force = force
	return &environment{
		rootDir: rootDir,
		cfg:     cfg,
		store:   store,
		service: indexer.NewService(store, opts),
	}, nil
}

func (e *environment) Close() error {
	return e.store.Close()
}
