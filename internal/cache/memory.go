package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process cache. Entries older than the retention time are
// dropped on access.
type Memory struct {
	retention time.Duration
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemory creates a cache that keeps entries for retention.
func NewMemory(retention time.Duration) *Memory {
	return &Memory{
		retention: retention,
		now:       time.Now,
		entries:   make(map[string]Entry),
	}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	if m.now().Sub(e.FetchedAt) >= m.retention {
		delete(m.entries, key)
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (m *Memory) Set(_ context.Context, key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}
