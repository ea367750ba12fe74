// README: Read-through snapshot cache fed by Firestore change subscriptions.
package store

import "sync"

// Snapshot holds the latest full result set of a watched collection query.
// Consumers must call Items on every read and derive filtered views from the
// returned slice; the cache is replaced wholesale whenever the subscription
// delivers a new snapshot, so holding on to an old slice means reading stale
// data.
type Snapshot[T any] struct {
	mu    sync.RWMutex
	items []T
	subs  []func([]T)
}

func NewSnapshot[T any]() *Snapshot[T] {
	return &Snapshot[T]{}
}

// Replace swaps in a new result set and notifies subscribers.
func (s *Snapshot[T]) Replace(items []T) {
	s.mu.Lock()
	s.items = items
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(items)
	}
}

// Items returns the current result set. The slice must be treated as
// read-only.
func (s *Snapshot[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

// OnUpdate registers fn to run after every Replace. Registration is not
// safe concurrently with Replace; wire subscribers during startup.
func (s *Snapshot[T]) OnUpdate(fn func([]T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
