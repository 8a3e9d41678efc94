package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store backed by a mutex-guarded map.
// It is the default store when no Redis instance is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	stats   stats
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// Get returns the entry for key, stale or not.
func (s *MemoryStore) Get(ctx context.Context, key Key) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[key.String()]
	s.mu.RUnlock()

	if !ok {
		s.stats.recordMiss("memory")
		return nil, ErrCacheMiss
	}

	s.stats.recordRead("memory", entry)
	return entry, nil
}

// Set unconditionally overwrites any existing entry for key.
func (s *MemoryStore) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		CacheErrors.WithLabelValues("set").Inc()
		return ErrInvalidEntry
	}

	s.mu.Lock()
	s.entries[key.String()] = entry
	s.mu.Unlock()

	s.stats.sets.Add(1)
	return nil
}

// Clear removes all entries.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()

	s.stats.clears.Add(1)
	return nil
}

// Stats returns a snapshot of the store's counters.
func (s *MemoryStore) Stats() map[string]int64 {
	snap := s.stats.snapshot()

	s.mu.RLock()
	snap["entries"] = int64(len(s.entries))
	s.mu.RUnlock()

	return snap
}
