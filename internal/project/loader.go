package project

import (
	"context"
	"errors"
	"sync"
)

// State is the lifecycle of a project fetch. Not-found is deliberately a
// distinct terminal state rather than an endless loading placeholder.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateNotFound
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateNotFound:
		return "not_found"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is the observable state of a Loader.
type Snapshot struct {
	ID      string
	State   State
	Project *Project
	Err     error
	// Stale marks a loaded snapshot that the backend has since changed.
	Stale bool
}

// Loader runs at most one fetch at a time, keyed by the requested
// identifier. Calling Load with a new identifier cancels the in-flight
// fetch; a completion whose identifier generation no longer matches is
// discarded, so a slow old fetch can never overwrite a newer result.
type Loader struct {
	mu     sync.Mutex
	store  Store
	record func(outcome string)

	gen     int
	cancel  context.CancelFunc
	snap    Snapshot
	settled chan struct{}
	open    bool
	closed  bool
}

// NewLoader creates a loader over the given store. record, if non-nil,
// receives fetch outcomes (loaded, not_found, failed, stale) for metrics.
func NewLoader(store Store, record func(outcome string)) *Loader {
	return &Loader{store: store, record: record}
}

// Load starts (or joins) a fetch for id. The returned channel closes when
// this load settles or is superseded by a later Load.
func (l *Loader) Load(id string) <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		ch := make(chan struct{})
		close(ch)
		return ch
	}

	// Join an in-flight fetch for the same identifier.
	if l.snap.State == StateLoading && l.snap.ID == id {
		return l.settled
	}

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.release()

	l.gen++
	gen := l.gen
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.snap = Snapshot{ID: id, State: StateLoading}
	l.settled = make(chan struct{})
	l.open = true

	go l.fetch(ctx, gen, id, cancel)
	return l.settled
}

func (l *Loader) fetch(ctx context.Context, gen int, id string, cancel context.CancelFunc) {
	defer cancel()

	p, err := l.store.FetchByID(ctx, id)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen || l.closed {
		l.note("stale")
		return
	}

	switch {
	case err == nil:
		l.snap = Snapshot{ID: id, State: StateLoaded, Project: p}
		l.note("loaded")
	case errors.Is(err, ErrNotFound):
		l.snap = Snapshot{ID: id, State: StateNotFound}
		l.note("not_found")
	default:
		l.snap = Snapshot{ID: id, State: StateFailed, Err: err}
		l.note("failed")
	}
	l.release()
}

// Snapshot returns the current state.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}

// Invalidate marks a loaded snapshot for id as stale, forcing the next
// Load to refetch.
func (l *Loader) Invalidate(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap.ID == id && (l.snap.State == StateLoaded || l.snap.State == StateNotFound) {
		l.snap.Stale = true
	}
}

// Close cancels any in-flight fetch and releases waiters.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.release()
}

// release closes the settled channel if it is open. Callers hold l.mu.
func (l *Loader) release() {
	if l.open {
		close(l.settled)
		l.open = false
	}
}

func (l *Loader) note(outcome string) {
	if l.record != nil {
		l.record(outcome)
	}
}
