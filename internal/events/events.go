// Package events carries out-of-band signals between the HTTP layer, durable
// storage watchers, the view layer and the stores.
//
// Durable storage can be rewritten by another process, the user can come back
// to the terminal, and the HTTP layer can learn that the session was rejected.
// All three arrive through one Channel so a store needs a single subscription.
// Callers without any of these sources pass Noop.
package events

import (
	"slices"
	"sync"
)

// Kind identifies what happened.
type Kind int

const (
	// StorageChanged means durable storage was modified by another surface.
	StorageChanged Kind = iota + 1
	// Visible means the user returned to the application.
	Visible
	// Invalidated means the session is no longer valid, however that was detected.
	Invalidated
)

func (k Kind) String() string {
	switch k {
	case StorageChanged:
		return "storage_changed"
	case Visible:
		return "visible"
	case Invalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// Signal is a single notification.
type Signal struct {
	Kind Kind
	// Slot names the storage slot for StorageChanged; empty means "any".
	Slot string
	// Source is a free-form origin label used in logs.
	Source string
}

// Channel delivers signals to subscribers.
type Channel interface {
	Subscribe(fn func(Signal)) (cancel func())
}

// Publisher raises signals.
type Publisher interface {
	Publish(sig Signal)
}

// Bus is an in-memory Channel and Publisher. Delivery is synchronous and
// happens outside the bus lock, so subscribers may publish or unsubscribe.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]func(Signal)
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]func(Signal))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Signal)) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[uint64]func(Signal))
	}
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers sig to every current subscriber in registration order.
func (b *Bus) Publish(sig Signal) {
	b.mu.RLock()
	ids := make([]uint64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Signal), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(sig)
	}
}

// Noop ignores subscriptions and publications.
type Noop struct{}

// Subscribe implements Channel.
func (Noop) Subscribe(func(Signal)) func() { return func() {} }

// Publish implements Publisher.
func (Noop) Publish(Signal) {}

var (
	_ Channel   = (*Bus)(nil)
	_ Publisher = (*Bus)(nil)
	_ Channel   = Noop{}
	_ Publisher = Noop{}
)
