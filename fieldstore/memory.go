package fieldstore

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// MemoryStore is an in-memory Store implementation for tests and ephemeral
// pipelines. Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu       sync.RWMutex
	archives map[string][]byte
}

// NewMemoryStore creates a new in-memory archive store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		archives: make(map[string][]byte),
	}
}

// Open opens an archive for reading.
func (m *MemoryStore) Open(_ context.Context, name string) (Archive, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.archives[name]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy to prevent external mutation.
	copied := make([]byte, len(data))
	copy(copied, data)
	return &memoryArchive{Reader: bytes.NewReader(copied), size: int64(len(copied))}, nil
}

// Create creates a new writable archive.
func (m *MemoryStore) Create(_ context.Context, name string) (WritableArchive, error) {
	return &memoryWritableArchive{store: m, name: name}, nil
}

// Put writes an archive atomically.
func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	copied := make([]byte, len(data))
	copy(copied, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.archives[name] = copied
	return nil
}

// Delete removes an archive.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.archives, name)
	return nil
}

// List returns all archive names with the given prefix.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.archives {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type memoryArchive struct {
	*bytes.Reader
	size int64
}

func (a *memoryArchive) Size() int64 { return a.size }

func (a *memoryArchive) Close() error { return nil }

type memoryWritableArchive struct {
	store    *MemoryStore
	name     string
	buf      bytes.Buffer
	finished atomic.Bool
}

func (a *memoryWritableArchive) Write(p []byte) (int, error) {
	return a.buf.Write(p)
}

func (a *memoryWritableArchive) Close() error {
	if !a.finished.CompareAndSwap(false, true) {
		return errors.New("already closed")
	}
	return a.store.Put(context.Background(), a.name, a.buf.Bytes())
}

func (a *memoryWritableArchive) Abort() error {
	a.finished.Store(true)
	a.buf.Reset()
	return nil
}
