package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     interface{}
	expiresAt time.Time
}

// Memory is an in-process Backend with TTL-only eviction. Expired
// entries are removed lazily on read. There is no size bound, which is
// acceptable for a single-process deployment; use the Redis backend
// when the working set must be shared or bounded.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	hits    uint64
	misses  uint64

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Backend. Reading an expired key deletes it and counts
// as a miss.
func (m *Memory) Get(_ context.Context, key string) (interface{}, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if ok {
		if m.now().Before(entry.expiresAt) {
			m.hits++
			return entry.value, true, nil
		}
		delete(m.entries, key)
	}
	m.misses++
	return nil, false, nil
}

// Set implements Backend.
func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		value:     value,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Delete implements Backend.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Clear implements Backend. Counters reset alongside the entries.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]memoryEntry)
	m.hits = 0
	m.misses = 0
	return nil
}

// Stats implements Backend.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		Hits:          m.hits,
		Misses:        m.misses,
		TotalRequests: m.hits + m.misses,
		HitRate:       hitRate(m.hits, m.misses),
	}
}

// Close implements Backend. The in-memory backend holds no external
// resources.
func (m *Memory) Close() error {
	return nil
}

// Len returns the number of live entries, expired or not. Used by
// tests and the demo command.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
