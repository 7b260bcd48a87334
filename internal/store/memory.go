package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps items in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[string]string)}
}

func (m *MemoryBackend) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryBackend) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.items[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
