package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of changes fires.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a file watcher.
type Options struct {
	// Debounce is the quiet period before firing. Zero means DefaultDebounce.
	Debounce time.Duration
	// Match selects the files whose events are reported. Nil matches all.
	Match func(path string) bool
	// SkipDir keeps directories out of the watch set. Nil skips none.
	SkipDir func(path string) bool
}

// fileWatcher implements FileWatcher on top of fsnotify.
type fileWatcher struct {
	watcher      *fsnotify.Watcher
	root         string
	opts         Options
	dirs         map[string]bool // watched directories; owned by watch after Start
	callback     func(files []string)
	ctx          context.Context
	cancel       context.CancelFunc
	paused       bool
	pausedMu     sync.RWMutex
	accumulated  map[string]bool
	accumulateMu sync.Mutex
	timer        *time.Timer
	timerMu      sync.Mutex
	stopOnce     sync.Once
	doneCh       chan struct{}
}

// NewFileWatcher watches root recursively. New directories are added as
// they appear.
func NewFileWatcher(root string, opts Options) (FileWatcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Match == nil {
		opts.Match = func(string) bool { return true }
	}
	if opts.SkipDir == nil {
		opts.SkipDir = func(string) bool { return false }
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("watch root is not a directory: " + abs)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &fileWatcher{
		watcher:     w,
		root:        abs,
		opts:        opts,
		accumulated: make(map[string]bool),
		dirs:        make(map[string]bool),
		doneCh:      make(chan struct{}),
	}
	if err := fw.addDirectoriesRecursively(abs); err != nil {
		w.Close()
		return nil, err
	}
	return fw, nil
}

// Start begins watching for file changes.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop stops the file watcher. It is safe to call more than once.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

// Pause stops firing callbacks but continues accumulating events.
func (fw *fileWatcher) Pause() {
	fw.pausedMu.Lock()
	defer fw.pausedMu.Unlock()
	fw.paused = true
}

// Resume resumes firing callbacks. Changes accumulated while paused fire
// immediately.
func (fw *fileWatcher) Resume() {
	fw.pausedMu.Lock()
	wasPaused := fw.paused
	fw.paused = false
	fw.pausedMu.Unlock()

	if wasPaused {
		fw.flush()
	}
}

func (fw *fileWatcher) watch() {
	defer close(fw.doneCh)

	fireCh := make(chan struct{}, 1)

	for {
		select {
		case <-fw.ctx.Done():
			fw.stopDebounceTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addDirectoriesRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
					// Files may land before the directory is watched.
					if fw.accumulateExisting(event.Name) {
						fw.resetDebounceTimer(fireCh)
					}
					continue
				}
			}

			// A moved or deleted directory is reported as itself so its
			// indexed files can be pruned.
			if (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) && fw.forgetDirectory(event.Name) {
				fw.accumulateMu.Lock()
				fw.accumulated[event.Name] = true
				fw.accumulateMu.Unlock()
				fw.resetDebounceTimer(fireCh)
				continue
			}

			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.accumulateMu.Lock()
			fw.accumulated[event.Name] = true
			fw.accumulateMu.Unlock()

			fw.resetDebounceTimer(fireCh)

		case <-fireCh:
			fw.pausedMu.RLock()
			paused := fw.paused
			fw.pausedMu.RUnlock()
			if !paused {
				fw.flush()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: file watcher error: %v", err)
		}
	}
}

// flush hands accumulated paths to the callback in sorted order.
func (fw *fileWatcher) flush() {
	fw.accumulateMu.Lock()
	if len(fw.accumulated) == 0 {
		fw.accumulateMu.Unlock()
		return
	}
	files := make([]string, 0, len(fw.accumulated))
	for file := range fw.accumulated {
		files = append(files, file)
	}
	fw.accumulated = make(map[string]bool)
	fw.accumulateMu.Unlock()

	sort.Strings(files)
	if fw.callback != nil {
		fw.callback(files)
	}
}

func (fw *fileWatcher) resetDebounceTimer(fireCh chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.opts.Debounce, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

func (fw *fileWatcher) stopDebounceTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
		fw.timer = nil
	}
}

// shouldProcessEvent drops Chmod-only events and non-matching files.
func (fw *fileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return fw.opts.Match(event.Name)
}

func (fw *fileWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != fw.root && fw.opts.SkipDir(path) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
			return nil
		}
		fw.dirs[path] = true
		return nil
	})
}

// forgetDirectory drops dir and its subdirectories from the watch set and
// reports whether dir was being watched.
func (fw *fileWatcher) forgetDirectory(dir string) bool {
	if !fw.dirs[dir] {
		return false
	}
	prefix := dir + string(filepath.Separator)
	for d := range fw.dirs {
		if d != dir && !strings.HasPrefix(d, prefix) {
			continue
		}
		delete(fw.dirs, d)
		// A renamed directory keeps its inotify watch at the new location.
		_ = fw.watcher.Remove(d)
	}
	return true
}

// accumulateExisting records matching files already present under dir and
// reports whether any were found.
func (fw *fileWatcher) accumulateExisting(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && fw.opts.SkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if fw.opts.Match(path) {
			fw.accumulateMu.Lock()
			fw.accumulated[path] = true
			fw.accumulateMu.Unlock()
			found = true
		}
		return nil
	})
	return found
}
