package blob

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	created bool
	objects map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) EnsureBucket(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = true
	return nil
}

func (m *Memory) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[objectName] = buf
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// Object returns a stored object's bytes, if present.
func (m *Memory) Object(objectName string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[objectName]
	return data, ok
}

// Len reports how many objects the store holds.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
