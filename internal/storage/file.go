package storage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultWatchInterval = time.Second
	maxBackoff           = 30 * time.Second
)

// fileDocument is the on-disk layout of the session file.
type fileDocument struct {
	Writer   string            `toml:"writer"`
	Revision uint64            `toml:"revision"`
	Slots    map[string]string `toml:"slots"`
}

// FileStorage keeps slots in a TOML file. Every write records the writer id so
// Watch can skip changes this instance made itself.
type FileStorage struct {
	path string
	id   string

	mu sync.Mutex
	// seen is the last document this instance wrote or observed.
	seen    fileDocument
	seenMod time.Time
}

// NewFileStorage returns storage backed by the file at path. The file is
// created on first write.
func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("storage path is empty")
	}
	f := &FileStorage{path: path, id: uuid.NewString()}
	doc, mod, err := f.read()
	if err != nil {
		return nil, err
	}
	f.seen = doc
	f.seenMod = mod
	return f, nil
}

// Path returns the backing file location.
func (f *FileStorage) Path() string {
	return f.path
}

// Get implements Storage.
func (f *FileStorage) Get(_ context.Context, slot Slot) (string, bool, error) {
	doc, _, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Slots[string(slot)]
	return v, ok, nil
}

// Set implements Storage.
func (f *FileStorage) Set(_ context.Context, slot Slot, value string) error {
	return f.mutate(func(slots map[string]string) bool {
		if cur, ok := slots[string(slot)]; ok && cur == value {
			return false
		}
		slots[string(slot)] = value
		return true
	})
}

// Remove implements Storage.
func (f *FileStorage) Remove(_ context.Context, slot Slot) error {
	return f.mutate(func(slots map[string]string) bool {
		if _, ok := slots[string(slot)]; !ok {
			return false
		}
		delete(slots, string(slot))
		return true
	})
}

func (f *FileStorage) mutate(apply func(map[string]string) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, _, err := f.read()
	if err != nil {
		return err
	}
	if doc.Slots == nil {
		doc.Slots = make(map[string]string)
	}
	if !apply(doc.Slots) {
		return nil
	}
	doc.Writer = f.id
	doc.Revision++

	mod, err := f.write(doc)
	if err != nil {
		return err
	}
	f.seen = doc
	f.seenMod = mod
	return nil
}

func (f *FileStorage) read() (fileDocument, time.Time, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileDocument{}, time.Time{}, nil
		}
		return fileDocument{}, time.Time{}, fmt.Errorf("stat session file: %w", err)
	}
	bytes, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileDocument{}, time.Time{}, nil
		}
		return fileDocument{}, time.Time{}, fmt.Errorf("read session file: %w", err)
	}
	var doc fileDocument
	if err := toml.Unmarshal(bytes, &doc); err != nil {
		return fileDocument{}, time.Time{}, fmt.Errorf("parse session file: %w", err)
	}
	return doc, info.ModTime(), nil
}

func (f *FileStorage) write(doc fileDocument) (time.Time, error) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return time.Time{}, fmt.Errorf("create session dir: %w", err)
	}
	bytes, err := toml.Marshal(doc)
	if err != nil {
		return time.Time{}, fmt.Errorf("marshal session file: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.toml")
	if err != nil {
		return time.Time{}, fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(bytes); err != nil {
		_ = tmp.Close()
		return time.Time{}, fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return time.Time{}, fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return time.Time{}, fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return time.Time{}, fmt.Errorf("replace session file: %w", err)
	}
	info, err := os.Stat(f.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat session file: %w", err)
	}
	return info.ModTime(), nil
}

// Watch polls the session file once a second until ctx ends. Read failures
// back off exponentially.
func (f *FileStorage) Watch(ctx context.Context, notify func(Slot)) error {
	return f.WatchEvery(ctx, defaultWatchInterval, notify)
}

// WatchEvery is Watch with an explicit base interval.
func (f *FileStorage) WatchEvery(ctx context.Context, interval time.Duration, notify func(Slot)) error {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	failures := 0
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		changed, err := f.poll()
		if err != nil {
			failures++
		} else {
			failures = 0
			for _, slot := range changed {
				notify(slot)
			}
		}
		timer.Reset(calculateBackoff(failures, interval))
	}
}

// poll compares the file with the last seen document and returns the slots
// another writer changed. A removed file reports the empty slot.
func (f *FileStorage) poll() ([]Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, mod, err := f.read()
	if err != nil {
		return nil, err
	}
	if mod.Equal(f.seenMod) && doc.Revision == f.seen.Revision && doc.Writer == f.seen.Writer {
		return nil, nil
	}
	prev := f.seen
	f.seen = doc
	f.seenMod = mod

	if mod.IsZero() {
		if len(prev.Slots) == 0 {
			return nil, nil
		}
		return []Slot{""}, nil
	}
	if doc.Writer == f.id || maps.Equal(prev.Slots, doc.Slots) {
		return nil, nil
	}

	var changed []Slot
	for _, slot := range Slots {
		before, hadBefore := prev.Slots[string(slot)]
		after, hasAfter := doc.Slots[string(slot)]
		if hadBefore != hasAfter || before != after {
			changed = append(changed, slot)
		}
	}
	return changed, nil
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

var (
	_ Storage = (*FileStorage)(nil)
	_ Watcher = (*FileStorage)(nil)
)
