package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/coffee-symbols/internal/storage"
	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

// Options configures a Service.
type Options struct {
	// Workers bounds concurrent files in IndexFiles. Zero means one per CPU.
	Workers int
	// ExportsOnly stores only each file's export surface.
	ExportsOnly bool
	// Force re-indexes files whose content hash is unchanged.
	Force bool
	// Symbols controls extraction for stored symbols.
	Symbols symbols.Options
}

// DefaultOptions indexes every symbol without walking function bodies.
func DefaultOptions() Options {
	opts := symbols.DefaultOptions()
	opts.IncludeClosures = false
	return Options{
		Workers: runtime.NumCPU(),
		Symbols: opts,
	}
}

// Failure is one file that could not be indexed.
type Failure struct {
	URI string
	Err error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.URI, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result summarizes a batch.
type Result struct {
	Indexed   int       // files whose symbols were replaced
	Unchanged int       // files skipped because their content hash matched
	Removed   int       // stale files dropped by SyncWorkspace
	Failures  []Failure // sorted by URI
	Duration  time.Duration
}

// Err joins all failures, or returns nil.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Service keeps a SymbolStore in sync with source files and answers symbol
// queries for the editor surface.
type Service struct {
	store    storage.SymbolStore
	indexer  *symbols.Parser // stored symbols
	outliner *symbols.Parser // single-document requests
	opts     Options
	locks    *uriLocks
	progress ProgressReporter
}

// NewService creates a Service over store. The caller keeps ownership of
// store.
func NewService(store storage.SymbolStore, opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	outline := opts.Symbols
	outline.IncludeClosures = true

	return &Service{
		store:    store,
		indexer:  symbols.NewParser(opts.Symbols),
		outliner: symbols.NewParser(outline),
		opts:     opts,
		locks:    newURILocks(),
		progress: &NoOpProgressReporter{},
	}
}

// SetProgressReporter replaces the progress callbacks. Nil disables them.
func (s *Service) SetProgressReporter(p ProgressReporter) {
	if p == nil {
		p = &NoOpProgressReporter{}
	}
	s.progress = p
}

// Store returns the underlying store.
func (s *Service) Store() storage.SymbolStore {
	return s.store
}

// Options returns the service configuration.
func (s *Service) Options() Options {
	return s.opts
}

// IndexFile reads, parses and stores the symbols of one file, replacing any
// previous generation.
func (s *Service) IndexFile(ctx context.Context, uri string) error {
	_, err := s.indexFile(ctx, uri)
	return err
}

// indexFile reports whether the store was written.
func (s *Service) indexFile(ctx context.Context, rawURI string) (bool, error) {
	key, err := NormalizeURI(rawURI)
	if err != nil {
		return false, err
	}
	path, err := URIToPath(key)
	if err != nil {
		return false, err
	}

	unlock := s.locks.lock(key)
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	hash := s.contentHash(data)

	if !s.opts.Force {
		existing, err := s.store.GetFile(ctx, key)
		if err != nil {
			return false, err
		}
		if existing != nil && existing.ContentHash == hash {
			return false, nil
		}
	}

	syms, err := s.indexer.Symbols(string(data), s.opts.ExportsOnly)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	file := storage.IndexedFile{URI: key, ContentHash: hash, IndexedAt: time.Now()}
	if err := s.store.ReplaceFile(ctx, file, syms); err != nil {
		return false, err
	}
	return true, nil
}

// contentHash covers the extraction settings as well as the bytes, so a
// configuration change invalidates stored generations.
func (s *Service) contentHash(data []byte) string {
	d := xxhash.New()
	fmt.Fprintf(d, "%t|%+v|", s.opts.ExportsOnly, s.opts.Symbols)
	d.Write(data)
	return strconv.FormatUint(d.Sum64(), 16)
}

// IndexFiles indexes uris with bounded parallelism. One file failing never
// stops the others; failures are collected in the result. Cancelling ctx
// abandons files that have not started.
func (s *Service) IndexFiles(ctx context.Context, uris []string) *Result {
	start := time.Now()
	result := &Result{Failures: []Failure{}}
	var mu sync.Mutex

	s.progress.OnFileProcessingStart(len(uris))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for _, uri := range uris {
		g.Go(func() error {
			changed, err := s.safeIndexFile(ctx, uri)

			mu.Lock()
			switch {
			case err != nil:
				result.Failures = append(result.Failures, Failure{URI: uri, Err: err})
			case changed:
				result.Indexed++
			default:
				result.Unchanged++
			}
			mu.Unlock()

			s.progress.OnFileProcessed(uri, err)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].URI < result.Failures[j].URI
	})
	result.Duration = time.Since(start)
	s.progress.OnComplete(result)
	return result
}

func (s *Service) safeIndexFile(ctx context.Context, uri string) (changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error: indexing %s panicked: %v", uri, r)
			changed, err = false, fmt.Errorf("%w: %v", ErrWorkerCrashed, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.indexFile(ctx, uri)
}

// RemoveFile drops a file's symbols. Unindexed URIs are a no-op.
func (s *Service) RemoveFile(ctx context.Context, uri string) error {
	key, err := NormalizeURI(uri)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(key)
	defer unlock()
	return s.store.DeleteFile(ctx, key)
}

// RemoveFiles removes every URI, continuing past failures, and returns the
// joined errors.
func (s *Service) RemoveFiles(ctx context.Context, uris []string) error {
	var errs []error
	for _, uri := range uris {
		if err := s.RemoveFile(ctx, uri); err != nil {
			errs = append(errs, Failure{URI: uri, Err: err})
		}
	}
	return errors.Join(errs...)
}

// PruneTree removes stored files at or under path that no longer exist on
// disk and returns how many were removed. It serves directory moves, where
// the watcher reports only the directory.
func (s *Service) PruneTree(ctx context.Context, path string) (int, error) {
	key, err := NormalizeURI(path)
	if err != nil {
		return 0, err
	}
	stored, err := s.store.ListFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list indexed files: %w", err)
	}

	prefix := strings.TrimSuffix(key, "/") + "/"
	removed := 0
	var errs []error
	for _, f := range stored {
		if f.URI != key && !strings.HasPrefix(f.URI, prefix) {
			continue
		}
		p, err := URIToPath(f.URI)
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := s.RemoveFile(ctx, f.URI); err != nil {
			errs = append(errs, Failure{URI: f.URI, Err: err})
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Find returns stored symbols whose name contains query, ignoring case. An
// empty query returns an empty result without touching the store.
func (s *Service) Find(ctx context.Context, query string) ([]storage.SymbolRecord, error) {
	return s.FindN(ctx, query, 0)
}

// FindN is Find with a result limit; limit <= 0 means unlimited.
func (s *Service) FindN(ctx context.Context, query string, limit int) ([]storage.SymbolRecord, error) {
	if query == "" {
		return []storage.SymbolRecord{}, nil
	}
	return s.store.Find(ctx, query, limit)
}

// DocumentSymbols extracts every symbol of src, closures included, without
// touching the store.
func (s *Service) DocumentSymbols(src string) []symbols.Symbol {
	return s.outliner.DocumentSymbols(src)
}

// Validate returns the syntax diagnostics of src.
func (s *Service) Validate(src string) []symbols.Diagnostic {
	return s.outliner.Validate(src)
}

// SyncWorkspace indexes every file fd discovers and removes stored files
// under the discovery root that no longer match.
func (s *Service) SyncWorkspace(ctx context.Context, fd *FileDiscovery) (*Result, error) {
	s.progress.OnDiscoveryStart()
	paths, err := fd.DiscoverFiles()
	if err != nil {
		return nil, err
	}
	s.progress.OnDiscoveryComplete(len(paths))

	live := make(map[string]bool, len(paths))
	uris := make([]string, 0, len(paths))
	for _, p := range paths {
		key, err := NormalizeURI(p)
		if err != nil {
			return nil, err
		}
		live[key] = true
		uris = append(uris, key)
	}

	result := s.IndexFiles(ctx, uris)

	stored, err := s.store.ListFiles(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list indexed files: %w", err)
	}
	for _, f := range stored {
		if live[f.URI] {
			continue
		}
		path, err := URIToPath(f.URI)
		if err != nil || !fd.ownsPath(path) {
			continue
		}
		if err := s.RemoveFile(ctx, f.URI); err != nil {
			result.Failures = append(result.Failures, Failure{URI: f.URI, Err: err})
			continue
		}
		result.Removed++
	}
	return result, nil
}
