package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// candidateLocks serializes pipeline runs per candidate. Entries are
// reference-counted and removed once the last holder releases, so the map
// does not grow with every candidate ever seen.
type candidateLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newCandidateLocks() *candidateLocks {
	return &candidateLocks{entries: make(map[uuid.UUID]*lockEntry)}
}

// Acquire blocks until the candidate's lock is held and returns the
// release function. Release must run on every exit path of the caller.
func (l *candidateLocks) Acquire(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.entries, id)
			}
			l.mu.Unlock()
		})
	}
}

// runRegistry tracks the cancel function of the active run per candidate
// so a re-upload can abort stale work before taking the lock.
type runRegistry struct {
	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

func newRunRegistry() *runRegistry {
	return &runRegistry{cancels: make(map[uuid.UUID]context.CancelFunc)}
}

func (r *runRegistry) track(id uuid.UUID, cancel context.CancelFunc) {
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()
}

func (r *runRegistry) untrack(id uuid.UUID) {
	r.mu.Lock()
	delete(r.cancels, id)
	r.mu.Unlock()
}

// cancel aborts the tracked run, if any. The entry stays until the run
// itself untracks on exit.
func (r *runRegistry) cancel(id uuid.UUID) {
	r.mu.Lock()
	cancelFunc := r.cancels[id]
	r.mu.Unlock()
	if cancelFunc != nil {
		cancelFunc()
	}
}
