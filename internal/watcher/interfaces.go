package watcher

import (
	"context"

	"github.com/mvp-joe/coffee-symbols/internal/indexer"
)

// FileWatcher monitors source files for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching, calling callback with debounced file changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// Indexer is the part of indexer.Service the router drives.
type Indexer interface {
	IndexFiles(ctx context.Context, uris []string) *indexer.Result
	PruneTree(ctx context.Context, path string) (int, error)
}
