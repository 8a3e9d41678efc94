package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists cache entries in Redis as JSON.
//
// Entries are written without a Redis expiration: staleness is tracked
// logically via the entry's own timestamps, and a stale entry stays
// readable until it is overwritten or the store is cleared.
type RedisStore struct {
	redis *redis.Client
	stats stats
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
	}
}

// Get returns the entry for key, stale or not.
// Returns ErrCacheMiss when no entry exists.
func (s *RedisStore) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := s.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			s.stats.recordMiss("redis")
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	s.stats.recordRead("redis", &entry)
	return &entry, nil
}

// Set unconditionally overwrites any existing entry for key.
func (s *RedisStore) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		CacheErrors.WithLabelValues("set").Inc()
		return ErrInvalidEntry
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	// Expiration 0: the key must survive past staleness (see type doc).
	if err := s.redis.Set(ctx, key.String(), data, 0).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	s.stats.sets.Add(1)
	return nil
}

// Clear removes all entries under the menu items namespace.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.redis.Scan(ctx, 0, Namespace+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.redis.Del(ctx, iter.Val()).Err(); err != nil {
			CacheErrors.WithLabelValues("clear").Inc()
			return fmt.Errorf("redis del: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("redis scan: %w", err)
	}

	s.stats.clears.Add(1)
	return nil
}

// Stats returns a snapshot of the store's counters.
func (s *RedisStore) Stats() map[string]int64 {
	return s.stats.snapshot()
}
