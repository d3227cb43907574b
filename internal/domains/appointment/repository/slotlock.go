package repository

import (
	"sync"
)

// slotLocks hands out one mutex per slot key so reservations for the same
// slot serialize while distinct slots proceed in parallel. Entries are
// reference counted and removed once the last holder releases, so the map
// does not grow with every key ever seen.
type slotLocks struct {
	mu    sync.Mutex
	locks map[string]*slotLock
}

type slotLock struct {
	mu   sync.Mutex
	refs int
}

func newSlotLocks() *slotLocks {
	return &slotLocks{
		locks: make(map[string]*slotLock),
	}
}

// Acquire blocks until the lock for key is held and returns the release
// function. Callers must release on every exit path, typically via defer.
func (s *slotLocks) Acquire(key string) func() {
	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &slotLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()

	var once sync.Once

	return func() {
		once.Do(func() {
			lock.mu.Unlock()

			s.mu.Lock()
			lock.refs--
			if lock.refs == 0 {
				delete(s.locks, key)
			}
			s.mu.Unlock()
		})
	}
}

// Len reports the number of keys currently held or contended.
func (s *slotLocks) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.locks)
}
