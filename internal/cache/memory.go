package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process Cache guarded by a RWMutex.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		// Re-check under the write lock; another writer may have refreshed it.
		if cur, ok := m.entries[key]; ok && cur.expires.Equal(e.expires) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return append([]byte(nil), e.value...), true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
}

// Purge removes entries whose key starts with prefix, or every entry when
// prefix is empty. Returns the number removed.
func (m *Memory) Purge(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prefix == "" {
		count := len(m.entries)
		m.entries = make(map[string]entry)
		return count
	}

	count := 0
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
			count++
		}
	}
	return count
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Compile-time interface verification
var _ Cache = (*Memory)(nil)
