package period

import "sync"

type storeKey struct {
	tenantID string
	storeID  int64
}

type storeLock struct {
	mu   sync.Mutex
	refs int
}

// storeLocks serializes writes per store. Entries are dropped once no
// goroutine holds or waits on them.
type storeLocks struct {
	mu    sync.Mutex
	locks map[storeKey]*storeLock
}

func newStoreLocks() *storeLocks {
	return &storeLocks{locks: make(map[storeKey]*storeLock)}
}

// lock blocks until the store's lock is held and returns its release func.
func (s *storeLocks) lock(tenantID string, storeID int64) func() {
	key := storeKey{tenantID: tenantID, storeID: storeID}

	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &storeLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

func (s *storeLocks) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
