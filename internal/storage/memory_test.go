package storage

import (
	"context"
	"testing"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()

	if err := m.Set(ctx, TokenSlot, "T1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, _ := m.Get(ctx, TokenSlot); !ok || v != "T1" {
		t.Fatalf("Get = %q %v, want T1 true", v, ok)
	}
	if err := Clear(ctx, m); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := m.Get(ctx, TokenSlot); ok {
		t.Fatal("token still present after Clear")
	}
}

func TestMemoryStorage_ZeroValue(t *testing.T) {
	var m MemoryStorage
	if err := m.Set(context.Background(), UserSlot, "{}"); err != nil {
		t.Fatalf("Set on zero value: %v", err)
	}
}
