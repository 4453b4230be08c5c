package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
)

// Router feeds debounced file changes into an Indexer. Files that still
// exist are re-indexed. Paths that are gone, and directories, have their
// missing files pruned from the store.
type Router struct {
	files   FileWatcher
	indexer Indexer

	// OnBatch, when set, is called after each batch has been applied.
	OnBatch func(indexed, removed []string)
}

// NewRouter creates a router over files and indexer.
func NewRouter(files FileWatcher, indexer Indexer) *Router {
	return &Router{files: files, indexer: indexer}
}

// Run starts the watcher and blocks until ctx is cancelled, then stops it.
func (r *Router) Run(ctx context.Context) error {
	if err := r.files.Start(ctx, func(files []string) { r.handleFileChange(ctx, files) }); err != nil {
		r.stop()
		return err
	}
	<-ctx.Done()
	r.stop()
	return ctx.Err()
}

// Pause holds changes while a full sync runs; Resume applies them.
func (r *Router) Pause() { r.files.Pause() }

// Resume applies changes held by Pause.
func (r *Router) Resume() { r.files.Resume() }

func (r *Router) stop() {
	if err := r.files.Stop(); err != nil {
		log.Printf("Warning: file watcher stop failed: %v", err)
	}
}

func (r *Router) handleFileChange(ctx context.Context, files []string) {
	if len(files) == 0 {
		return
	}

	var present, gone, dirs []string
	for _, f := range files {
		info, err := os.Stat(f)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			gone = append(gone, f)
		case err == nil && info.IsDir():
			dirs = append(dirs, f)
		default:
			present = append(present, f)
		}
	}

	if len(present) > 0 {
		result := r.indexer.IndexFiles(ctx, present)
		for _, f := range result.Failures {
			log.Printf("Warning: failed to index %s: %v", f.URI, f.Err)
		}
		log.Printf("Indexed %d file(s), %d unchanged", result.Indexed, result.Unchanged)
	}
	removed := 0
	for _, p := range append(gone, dirs...) {
		n, err := r.indexer.PruneTree(ctx, p)
		if err != nil {
			log.Printf("Error: failed to remove deleted files under %s: %v", p, err)
		}
		removed += n
	}
	if removed > 0 {
		log.Printf("Removed %d deleted file(s)", removed)
	}

	if r.OnBatch != nil {
		r.OnBatch(present, gone)
	}
}
