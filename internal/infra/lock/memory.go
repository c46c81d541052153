// Package lock provides per-allotment mutual exclusion.
package lock

import (
	"context"
	"sync"
	"time"

	domainerrors "cleancity/internal/domain/errors"
	"cleancity/internal/domain/service"

	"github.com/google/uuid"
)

type memoryEntry struct {
	held chan struct{}
	refs int
}

// MemoryLocker is a keyed mutex for a single process.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*memoryEntry
	wait    time.Duration
}

// NewMemoryLocker creates a locker whose Lock gives up after wait.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		entries: make(map[uuid.UUID]*memoryEntry),
		wait:    wait,
	}
}

// Lock acquires the allotment's mutex.
func (l *MemoryLocker) Lock(ctx context.Context, allotmentID uuid.UUID) (service.UnlockFunc, error) {
	e := l.acquireEntry(allotmentID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.held <- struct{}{}:
		var once sync.Once

		return func(context.Context) error {
			once.Do(func() {
				<-e.held
				l.releaseEntry(allotmentID, e)
			})

			return nil
		}, nil
	case <-ctx.Done():
		l.releaseEntry(allotmentID, e)

		return nil, ctx.Err()
	case <-timer.C:
		l.releaseEntry(allotmentID, e)

		return nil, domainerrors.ErrAllotmentBusy.WithDetails("allotment " + allotmentID.String())
	}
}

func (l *MemoryLocker) acquireEntry(id uuid.UUID) *memoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok {
		e = &memoryEntry{held: make(chan struct{}, 1)}
		l.entries[id] = e
	}
	e.refs++

	return e
}

func (l *MemoryLocker) releaseEntry(id uuid.UUID, e *memoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, id)
	}
}
