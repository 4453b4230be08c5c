package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrIndexerClosed is returned by Submit after Close, and reported by jobs
	// still queued when Close ran.
	ErrIndexerClosed = errors.New("background indexer closed")

	// ErrWorkerCrashed reports a job whose worker panicked.
	ErrWorkerCrashed = errors.New("index worker crashed")
)

// BatchIndexer is the work a BackgroundIndexer runs for each job.
type BatchIndexer interface {
	IndexFiles(ctx context.Context, uris []string) *Result
}

// Job is one queued IndexFiles request.
type Job struct {
	ID   string
	URIs []string

	done   chan struct{}
	result *Result
	err    error
}

func newJob(uris []string) *Job {
	return &Job{
		ID:   uuid.New().String(),
		URIs: uris,
		done: make(chan struct{}),
	}
}

// Done is closed when the job has finished, failed or been cancelled.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is done. Per-file failures are in
// the result; the error reports crashes, shutdown and ctx expiry.
func (j *Job) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (j *Job) finish(result *Result, err error) {
	j.result, j.err = result, err
	close(j.done)
}

// BackgroundIndexer runs bulk indexing off the caller's goroutine. Jobs run
// one at a time in submission order; each job fans out internally.
type BackgroundIndexer struct {
	indexer BatchIndexer

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending []*Job
	closed  bool

	signal chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBackgroundIndexer starts the worker goroutine. Call Close to stop it.
func NewBackgroundIndexer(indexer BatchIndexer) *BackgroundIndexer {
	ctx, cancel := context.WithCancel(context.Background())
	b := &BackgroundIndexer{
		indexer: indexer,
		ctx:     ctx,
		cancel:  cancel,
		signal:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go b.run()
	return b
}

// Submit queues uris and returns immediately.
func (b *BackgroundIndexer) Submit(uris []string) (*Job, error) {
	job := newJob(append([]string(nil), uris...))

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrIndexerClosed
	}
	b.pending = append(b.pending, job)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
	return job, nil
}

// Pending returns the number of queued jobs not yet started.
func (b *BackgroundIndexer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *BackgroundIndexer) run() {
	defer close(b.doneCh)
	for {
		select {
		case <-b.stopCh:
			return
		case <-b.signal:
		}
		for job := b.next(); job != nil; job = b.next() {
			b.runJob(job)
		}
	}
}

func (b *BackgroundIndexer) next() *Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || len(b.pending) == 0 {
		return nil
	}
	job := b.pending[0]
	b.pending = b.pending[1:]
	return job
}

func (b *BackgroundIndexer) runJob(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error: index job %s crashed: %v", job.ID, r)
			job.finish(nil, fmt.Errorf("%w: %v", ErrWorkerCrashed, r))
		}
	}()
	result := b.indexer.IndexFiles(b.ctx, job.URIs)
	job.finish(result, nil)
}

// Close stops accepting jobs, fails queued ones with ErrIndexerClosed and
// waits for the running job to finish.
func (b *BackgroundIndexer) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	queued := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, job := range queued {
		job.finish(nil, ErrIndexerClosed)
	}
	close(b.stopCh)
	<-b.doneCh
	b.cancel()
	return nil
}

// Abort is Close that also cancels the running job. Files already being
// written complete their transaction; files not yet started are skipped.
func (b *BackgroundIndexer) Abort() error {
	b.cancel()
	return b.Close()
}
