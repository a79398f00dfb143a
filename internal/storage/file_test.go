package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestFileStorage_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.toml")

	fs, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage returned error: %v", err)
	}

	if _, found, err := fs.Get(ctx, TokenSlot); err != nil || found {
		t.Fatalf("Get on empty storage = found %v err %v, want not found", found, err)
	}

	if err := fs.Set(ctx, TokenSlot, "T1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := fs.Set(ctx, UserSlot, `{"name":"Ada"}`); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, found, err := fs.Get(ctx, TokenSlot)
	if err != nil || !found || got != "T1" {
		t.Fatalf("Get(token) = %q %v %v, want T1 true nil", got, found, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("session file perm = %o, want 600", perm)
	}

	if err := Clear(ctx, fs); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	for _, slot := range Slots {
		if _, found, _ := fs.Get(ctx, slot); found {
			t.Fatalf("slot %s still present after Clear", slot)
		}
	}
}

func TestFileStorage_SharedBetweenInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.toml")

	a, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage(a): %v", err)
	}
	b, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage(b): %v", err)
	}

	if err := a.Set(ctx, TokenSlot, "T1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found, err := b.Get(ctx, TokenSlot)
	if err != nil || !found || got != "T1" {
		t.Fatalf("b.Get = %q %v %v, want T1", got, found, err)
	}
}

func TestFileStorage_PollReportsOtherWritersOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.toml")

	a, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage(a): %v", err)
	}
	b, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage(b): %v", err)
	}

	if err := a.Set(ctx, TokenSlot, "T1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	changed, err := a.poll()
	if err != nil {
		t.Fatalf("a.poll: %v", err)
	}
	if len(changed) != 0 {
		t.Fatalf("a.poll = %v, want no changes for own write", changed)
	}

	changed, err = b.poll()
	if err != nil {
		t.Fatalf("b.poll: %v", err)
	}
	if len(changed) != 1 || changed[0] != TokenSlot {
		t.Fatalf("b.poll = %v, want [userToken]", changed)
	}

	// Nothing new on the next poll.
	changed, err = b.poll()
	if err != nil || len(changed) != 0 {
		t.Fatalf("second b.poll = %v %v, want none", changed, err)
	}
}

func TestFileStorage_PollReportsRemovedFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.toml")

	fs, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	if err := fs.Set(ctx, TokenSlot, "T1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	changed, err := fs.poll()
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(changed) != 1 || changed[0] != "" {
		t.Fatalf("poll = %v, want [\"\"] for cleared storage", changed)
	}
}

func TestFileStorage_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	if err := os.WriteFile(path, []byte(`slots = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := NewFileStorage(path)
	if err == nil || !strings.Contains(err.Error(), "parse session file") {
		t.Fatalf("NewFileStorage error = %v, want parse session file error", err)
	}
}

func TestFileStorage_WatchDeliversExternalWrite(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	path := filepath.Join(t.TempDir(), "session.toml")

	watcher, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage(watcher): %v", err)
	}
	writer, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage(writer): %v", err)
	}

	got := make(chan Slot, 4)
	done := make(chan error, 1)
	go func() {
		done <- watcher.WatchEvery(ctx, 10*time.Millisecond, func(s Slot) { got <- s })
	}()

	if err := writer.Set(context.Background(), UserSlot, `{"name":"Ada"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case slot := <-got:
		if slot != UserSlot {
			t.Fatalf("notified slot = %q, want %q", slot, UserSlot)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for change notification")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("WatchEvery returned %v, want nil after cancel", err)
	}
}

func TestNewFileStorage_EmptyPath(t *testing.T) {
	if _, err := NewFileStorage(""); err == nil {
		t.Fatal("NewFileStorage(\"\") returned nil error, want error")
	}
}
