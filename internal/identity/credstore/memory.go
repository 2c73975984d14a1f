package credstore

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a process-local Store for development and tests. Expired
// entries are dropped lazily on access.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string]entry), now: time.Now}
}

// WithClock replaces the time source, for tests that need to expire keys.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
	return m
}

func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return "", ErrNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) GetDel(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return "", ErrNotFound
	}
	delete(m.data, key)
	return e.value, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

// live must be called with mu held.
func (m *MemoryStore) live(key string) (entry, bool) {
	e, ok := m.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.data, key)
		return entry{}, false
	}
	return e, true
}
