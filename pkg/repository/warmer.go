package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/plateful/menu-catalog/pkg/catalog"
)

// WarmConfig holds cache warmer configuration.
type WarmConfig struct {
	// MaxConcurrency is the maximum number of parallel warm fetches.
	MaxConcurrency int

	// Timeout per warm fetch.
	Timeout time.Duration
}

// DefaultWarmConfig returns safe defaults for warming against a
// rate-limited backend.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// warmResult is the outcome of warming a single filter set.
type warmResult struct {
	filter catalog.Filter
	err    error
}

// Warmer primes the cache for a list of filter sets using a bounded
// worker pool. Each filter's first page goes through Repository.Fetch,
// so warmed pages land in the cache with the normal TTL stamp.
type Warmer struct {
	repo   *Repository
	config WarmConfig
}

// NewWarmer creates a cache warmer for the given repository.
func NewWarmer(repo *Repository, config WarmConfig) *Warmer {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Warmer{
		repo:   repo,
		config: config,
	}
}

// Warm fetches the first page for every filter set in parallel.
// A failed filter never aborts the remaining work; if any filter
// failed, Warm returns an error wrapping the last failure after all
// workers finish.
func (w *Warmer) Warm(ctx context.Context, limit int, filters []catalog.Filter) error {
	if len(filters) == 0 {
		return nil
	}

	start := time.Now()

	log.Info().
		Int("filters", len(filters)).
		Int("max_concurrency", w.config.MaxConcurrency).
		Msg("Starting cache warm")

	queue := make(chan catalog.Filter, len(filters))
	results := make(chan warmResult, len(filters))

	for _, filter := range filters {
		queue <- filter
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < w.config.MaxConcurrency; i++ {
		wg.Add(1)
		go w.worker(ctx, limit, queue, results, &wg, i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	warmed := 0
	failed := 0
	var lastErr error
	for result := range results {
		if result.err != nil {
			failed++
			lastErr = result.err
			log.Warn().
				Err(result.err).
				Str("query", result.filter.Query).
				Msg("Warm fetch failed")
			continue
		}
		warmed++
	}

	log.Info().
		Int("warmed", warmed).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Cache warm complete")

	if lastErr != nil {
		return fmt.Errorf("warmed %d/%d filter sets: %w", warmed, len(filters), lastErr)
	}
	return nil
}

// worker drains filter sets from the queue.
func (w *Warmer) worker(ctx context.Context, limit int, queue <-chan catalog.Filter, results chan<- warmResult, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for filter := range queue {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Msg("Warm worker stopping (context cancelled)")
			results <- warmResult{filter: filter, err: ctx.Err()}
			continue
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		_, err := w.repo.Fetch(fetchCtx, Params{Limit: limit, Filter: filter})
		cancel()

		results <- warmResult{filter: filter, err: err}
	}
}
