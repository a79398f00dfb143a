package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps slots in process memory. It does not survive restarts
// and never reports external changes.
type MemoryStorage struct {
	mu    sync.RWMutex
	slots map[Slot]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: make(map[Slot]string)}
}

// Get implements Storage.
func (m *MemoryStorage) Get(_ context.Context, slot Slot) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[slot]
	return v, ok, nil
}

// Set implements Storage.
func (m *MemoryStorage) Set(_ context.Context, slot Slot, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots == nil {
		m.slots = make(map[Slot]string)
	}
	m.slots[slot] = value
	return nil
}

// Remove implements Storage.
func (m *MemoryStorage) Remove(_ context.Context, slot Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
	return nil
}

var _ Storage = (*MemoryStorage)(nil)
