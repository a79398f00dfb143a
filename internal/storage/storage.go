// Package storage persists the session credential across runs.
//
// Two named slots are kept: the opaque token string and a serialized user
// metadata blob. Backends are interchangeable; the file backend suits a single
// workstation, the redis backend lets several terminals share one session.
// Backends that can observe writes made by other processes implement Watcher.
package storage

import (
	"context"
	"errors"
)

// Slot names a persisted value.
type Slot string

const (
	// TokenSlot holds the authentication token.
	TokenSlot Slot = "userToken"
	// UserSlot holds JSON-encoded user metadata.
	UserSlot Slot = "userData"
)

// Slots lists every slot in a stable order.
var Slots = []Slot{TokenSlot, UserSlot}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage closed")

// Storage reads and writes slots. Get reports found=false for a missing slot
// rather than an error.
type Storage interface {
	Get(ctx context.Context, slot Slot) (value string, found bool, err error)
	Set(ctx context.Context, slot Slot, value string) error
	Remove(ctx context.Context, slot Slot) error
}

// Watcher observes writes made by other instances. notify receives the changed
// slot, or the empty slot when the whole store was cleared. Watch blocks until
// ctx ends.
type Watcher interface {
	Watch(ctx context.Context, notify func(Slot)) error
}

// Clear removes every slot, continuing past failures.
func Clear(ctx context.Context, s Storage) error {
	var errs []error
	for _, slot := range Slots {
		if err := s.Remove(ctx, slot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
