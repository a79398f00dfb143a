package state

import (
	"slices"
	"sync"
)

// Store holds one slice of application state and notifies subscribers when it
// changes. The zero value is not usable; construct with New.
type Store[T any] struct {
	mu       sync.RWMutex
	snapshot T
	clone    func(T) T

	subMu sync.Mutex
	next  uint64
	subs  map[uint64]func(T)
}

// New builds a Store holding initial. clone is applied to every value handed
// out so callers cannot mutate the stored snapshot; nil means values are
// copied by assignment only.
func New[T any](initial T, clone func(T) T) *Store[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Store[T]{
		snapshot: clone(initial),
		clone:    clone,
		subs:     make(map[uint64]func(T)),
	}
}

// Snapshot returns a copy of the current value.
func (s *Store[T]) Snapshot() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clone(s.snapshot)
}

// View calls fn with the stored value under the read lock, without copying.
// fn must not retain or modify the value.
func (s *Store[T]) View(fn func(T)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.snapshot)
}

// Set replaces the stored value and notifies subscribers.
func (s *Store[T]) Set(v T) {
	s.Update(func(T) (T, bool) { return v, true })
}

// Update applies fn to a copy of the current value while holding the write
// lock. When fn reports changed, the result becomes the new snapshot and every
// subscriber is notified after the lock is released. Subscribers always
// receive the latest snapshot, so overlapping updates never deliver a stale
// value last. fn must not call back into the same Store.
func (s *Store[T]) Update(fn func(current T) (next T, changed bool)) T {
	s.mu.Lock()
	next, changed := fn(s.clone(s.snapshot))
	if changed {
		s.snapshot = s.clone(next)
	}
	out := s.clone(s.snapshot)
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return out
}

// Subscribe registers fn for change notifications. The returned function
// removes the subscription and is safe to call more than once.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store[T]) notify() {
	s.subMu.Lock()
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(s.Snapshot())
	}
}
