package cache

import (
	"context"
	"errors"
	"sync/atomic"
)

var (
	// ErrCacheMiss indicates no entry exists for the requested key.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a nil or undecodable cache entry.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store holds page snapshots keyed by filter. Get returns whatever is
// stored, stale or not — staleness is the caller's call, and a stale
// entry stays readable until Set overwrites it or Clear removes it.
type Store interface {
	// Get returns the entry for key, or ErrCacheMiss when absent.
	Get(ctx context.Context, key Key) (*Entry, error)

	// Set unconditionally overwrites any existing entry for key.
	Set(ctx context.Context, key Key, entry *Entry) error

	// Clear removes all entries (global invalidation).
	Clear(ctx context.Context) error

	// Stats returns a snapshot of the store's counters.
	Stats() map[string]int64
}

// stats carries a store's diagnostic counters. A read of a fresh entry
// counts as a hit, a read of a stale entry as an expired read, an
// absent key as a miss.
type stats struct {
	hits    atomic.Int64
	misses  atomic.Int64
	expired atomic.Int64
	sets    atomic.Int64
	clears  atomic.Int64
}

// recordRead classifies a read that found an entry.
func (s *stats) recordRead(layer string, entry *Entry) {
	if entry.IsValid() {
		s.hits.Add(1)
		CacheHits.WithLabelValues(layer).Inc()
		return
	}
	s.expired.Add(1)
	CacheExpired.WithLabelValues(layer).Inc()
}

// recordMiss classifies a read that found nothing.
func (s *stats) recordMiss(layer string) {
	s.misses.Add(1)
	CacheMisses.WithLabelValues(layer).Inc()
}

// snapshot copies the counters into a map.
func (s *stats) snapshot() map[string]int64 {
	return map[string]int64{
		"hits":    s.hits.Load(),
		"misses":  s.misses.Load(),
		"expired": s.expired.Load(),
		"sets":    s.sets.Load(),
		"clears":  s.clears.Load(),
	}
}
