package jobstore

import (
	"context"
	"strconv"
	"sync"
)

type memoryEntry struct {
	content []byte
	version string
}

// MemoryBackend is an in-process Backend. Versions are a monotonically
// increasing counter, so every successful Put yields a new token.
type MemoryBackend struct {
	mu      sync.Mutex
	blobs   map[string]memoryEntry
	counter int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string]memoryEntry)}
}

func (m *MemoryBackend) Name() string {
	return "memory"
}

func (m *MemoryBackend) Get(ctx context.Context, path string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, Unavailable("memory get", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.blobs[path]
	if !ok {
		return Blob{}, ErrNotFound
	}
	return Blob{Content: append([]byte(nil), entry.content...), Version: entry.version}, nil
}

func (m *MemoryBackend) Put(ctx context.Context, path string, content []byte, expectedVersion string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Unavailable("memory put", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.blobs[path]
	switch {
	case expectedVersion == AbsentVersion && exists:
		return "", ErrVersionConflict
	case expectedVersion != AbsentVersion && (!exists || entry.version != expectedVersion):
		return "", ErrVersionConflict
	}

	m.counter++
	version := strconv.Itoa(m.counter)
	m.blobs[path] = memoryEntry{content: append([]byte(nil), content...), version: version}
	return version, nil
}

// Seed stores content unconditionally and returns its version
func (m *MemoryBackend) Seed(path string, content []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	version := strconv.Itoa(m.counter)
	m.blobs[path] = memoryEntry{content: append([]byte(nil), content...), version: version}
	return version
}

func (m *MemoryBackend) Ping(ctx context.Context) error {
	return ctx.Err()
}
