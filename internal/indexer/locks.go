package indexer

import "sync"

// uriLocks hands out one mutex per URI so replaces of the same file never
// interleave while different files proceed in parallel. Entries are dropped
// when the last holder releases them.
type uriLocks struct {
	mu    sync.Mutex
	locks map[string]*uriLock
}

type uriLock struct {
	mu   sync.Mutex
	refs int
}

func newURILocks() *uriLocks {
	return &uriLocks{locks: make(map[string]*uriLock)}
}

// lock blocks until uri is free and returns the matching unlock.
func (l *uriLocks) lock(uri string) func() {
	l.mu.Lock()
	entry, ok := l.locks[uri]
	if !ok {
		entry = &uriLock{}
		l.locks[uri] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, uri)
		}
		l.mu.Unlock()
	}
}

func (l *uriLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
