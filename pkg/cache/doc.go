// Package cache provides the menu items cache layer: deterministic key
// construction from filter parameters, TTL-stamped immutable entries,
// and the Store abstraction with in-memory and Redis implementations.
//
// Staleness is logical, not physical. A Store keeps stale entries
// around until they are overwritten or the store is cleared; whether a
// read counts as a hit is decided by Entry.IsValid. This is what lets
// the repository serve stale-while-revalidate reads without racing the
// backend's own expiry.
//
// # Basic Usage
//
//	store := cache.NewMemoryStore()
//
//	key := cache.KeyForFilter(catalog.Filter{
//		Query:      "pizza",
//		Categories: []string{"fast-food"},
//	})
//
//	entry, err := store.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the remote source, then:
//		// store.Set(ctx, key, cache.NewEntry(page, 15*time.Minute))
//	}
//	if entry != nil && entry.IsValid() {
//		// fresh hit
//	}
//
// # Redis Backend
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewRedisStore(redisClient)
//
// # Key Determinism
//
// Keys are rendered with every segment present and set members sorted,
// so two logically identical filter sets always map to the same key
// string regardless of element insertion order.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - menu_cache_hits_total{layer} - Fresh cache hits
//   - menu_cache_misses_total{layer} - Cache misses
//   - menu_cache_expired_reads_total{layer} - Reads that found a stale entry
//   - menu_cache_errors_total{operation} - Cache operation errors
//
// Per-store counters (hits, misses, expired, sets, clears) are also
// available as a plain map through Store.Stats for diagnostics.
package cache
