package inventory

import (
	"sync"

	"github.com/google/uuid"
)

// Locker is an in-process keyed mutex. Holding a branch key serializes stock
// commits for that branch; different branches never contend.
type Locker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*branchLock
}

type branchLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[uuid.UUID]*branchLock)}
}

// Lock blocks until the branch key is free and returns the release func.
// Release must be called exactly once.
func (l *Locker) Lock(branchID uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[branchID]
	if !ok {
		entry = &branchLock{}
		l.locks[branchID] = entry
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
				delete(l.locks, branchID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
