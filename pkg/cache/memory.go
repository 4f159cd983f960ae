package cache

import (
	"context"
	"sync"
)

// MemoryStore is the per-run in-memory cache tier. It is unbounded for the
// lifetime of the run.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
	}
}

func memKey(domain Domain, key string) string {
	return string(domain) + "\x00" + key
}

func (m *MemoryStore) Get(ctx context.Context, domain Domain, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[memKey(domain, key)]
	return value, ok, nil
}

func (m *MemoryStore) Put(ctx context.Context, domain Domain, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[memKey(domain, key)] = value
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, domain Domain, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, memKey(domain, key))
	return nil
}
