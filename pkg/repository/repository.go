// Package repository implements the menu items read-through repository:
// a cache store, a remote source, and a local fallback fused behind a
// single Fetch entry point with a stale-while-revalidate policy.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/plateful/menu-catalog/pkg/cache"
	"github.com/plateful/menu-catalog/pkg/catalog"
)

// Prometheus metrics for repository fetch operations.
var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_fetches_total",
		Help: "Total menu item fetches by outcome",
	}, []string{"outcome"}) // "cache_hit", "remote", "fallback", "error"

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "menu_fetch_duration_seconds",
		Help:    "Menu item fetch duration in seconds",
		Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2, 5},
	})

	backgroundRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_background_refresh_total",
		Help: "Total background cache refreshes by status",
	}, []string{"status"}) // "ok", "error"
)

const (
	// DefaultTTL is the fixed freshness window for cached first pages.
	DefaultTTL = 15 * time.Minute

	// DefaultRefreshTimeout bounds a single background refresh.
	DefaultRefreshTimeout = 30 * time.Second
)

// RemoteSource fetches paginated, filtered menu items from the backend.
// Failures are signaled by a non-nil error; the repository does not
// retry them.
type RemoteSource interface {
	FetchItems(ctx context.Context, limit int, cursor string, filter catalog.Filter) (*catalog.Page, error)
}

// FallbackSource serves a best-effort on-device snapshot, consulted
// only when the remote source fails. Filters are not honored.
type FallbackSource interface {
	Items(ctx context.Context, limit int) (*catalog.Page, error)
}

// Config holds the repository configuration.
type Config struct {
	// TTL is the freshness window for cached entries (DefaultTTL when zero).
	// It is fixed at construction, never per call.
	TTL time.Duration

	// RefreshTimeout bounds background refreshes (DefaultRefreshTimeout when zero).
	RefreshTimeout time.Duration
}

// Repository orchestrates the cache store, the remote source, and the
// local fallback. Construct one per process and share it; all methods
// are safe for concurrent use.
type Repository struct {
	store          cache.Store
	remote         RemoteSource
	fallback       FallbackSource
	ttl            time.Duration
	refreshTimeout time.Duration
	logger         zerolog.Logger
}

// Params describe a single fetch.
type Params struct {
	// Limit is the positive page size.
	Limit int

	// Cursor is the opaque continuation token from a prior page.
	// Empty requests the first page; only first pages touch the cache.
	Cursor string

	// Filter narrows the result set.
	Filter catalog.Filter
}

// New creates a repository from its three collaborators.
func New(store cache.Store, remote RemoteSource, fallback FallbackSource, cfg Config) (*Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if remote == nil {
		return nil, fmt.Errorf("remote source is required")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback source is required")
	}

	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}

	return &Repository{
		store:          store,
		remote:         remote,
		fallback:       fallback,
		ttl:            cfg.TTL,
		refreshTimeout: cfg.RefreshTimeout,
		logger:         log.With().Str("component", "menu-repository").Logger(),
	}, nil
}

// Fetch returns one page of menu items.
//
// First-page requests consult the cache: a fresh entry is returned
// immediately and a detached background refresh is spawned for the same
// key. Misses and stale entries fall through to a synchronous remote
// fetch whose first-page result repopulates the cache. When the remote
// source fails, the local fallback answers with limit only (filters are
// dropped on the degraded path); a fallback failure propagates to the
// caller unchanged.
func (r *Repository) Fetch(ctx context.Context, p Params) (*catalog.Page, error) {
	start := time.Now()
	defer func() {
		fetchDuration.Observe(time.Since(start).Seconds())
	}()

	if p.Limit <= 0 {
		fetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("limit must be positive (got %d)", p.Limit)
	}

	key := cache.KeyForFilter(p.Filter)
	firstPage := p.Cursor == ""

	if firstPage {
		entry, err := r.store.Get(ctx, key)
		if err != nil && err != cache.ErrCacheMiss {
			r.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache get error")
		}

		if entry != nil && entry.IsValid() {
			fetchesTotal.WithLabelValues("cache_hit").Inc()
			r.logger.Debug().
				Str("key", key.String()).
				Dur("ttl", entry.TTL()).
				Msg("Cache hit")

			// Revalidate behind the caller's back. Not awaited, not
			// retried; concurrent hits each spawn their own refresh
			// and the last write wins.
			go r.refresh(key, p.Limit, p.Filter)

			// Detach the returned page from the stored entry so callers
			// cannot mutate the cached snapshot through the shared slice.
			page := entry.Page
			page.Items = append([]catalog.MenuItem(nil), entry.Page.Items...)
			return &page, nil
		}
	}

	page, err := r.remote.FetchItems(ctx, p.Limit, p.Cursor, p.Filter)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("key", key.String()).
			Msg("Remote fetch failed, degrading to local fallback")

		fallbackPage, fbErr := r.fallback.Items(ctx, p.Limit)
		if fbErr != nil {
			fetchesTotal.WithLabelValues("error").Inc()
			r.logger.Error().
				Err(fbErr).
				Str("key", key.String()).
				Msg("Fallback source failed")
			// The fallback error surfaces unchanged; the remote error
			// was already logged above.
			return nil, fbErr
		}

		fetchesTotal.WithLabelValues("fallback").Inc()
		return fallbackPage, nil
	}

	if firstPage {
		if setErr := r.store.Set(ctx, key, cache.NewEntry(*page, r.ttl)); setErr != nil {
			r.logger.Warn().Err(setErr).Str("key", key.String()).Msg("Failed to cache page")
		}
	}

	fetchesTotal.WithLabelValues("remote").Inc()
	return page, nil
}

// refresh re-fetches the first page for key and overwrites the cache
// entry. It runs detached from the request that triggered it: the
// caller's context may be gone by the time it executes, so it uses a
// fresh bounded context. Failures are logged and dropped.
func (r *Repository) refresh(key cache.Key, limit int, filter catalog.Filter) {
	ctx, cancel := context.WithTimeout(context.Background(), r.refreshTimeout)
	defer cancel()

	page, err := r.remote.FetchItems(ctx, limit, "", filter)
	if err != nil {
		backgroundRefreshTotal.WithLabelValues("error").Inc()
		r.logger.Warn().Err(err).Str("key", key.String()).Msg("Background refresh failed")
		return
	}

	if err := r.store.Set(ctx, key, cache.NewEntry(*page, r.ttl)); err != nil {
		backgroundRefreshTotal.WithLabelValues("error").Inc()
		r.logger.Warn().Err(err).Str("key", key.String()).Msg("Background refresh cache set failed")
		return
	}

	backgroundRefreshTotal.WithLabelValues("ok").Inc()
	r.logger.Debug().Str("key", key.String()).Msg("Background refresh complete")
}

// ClearCache removes every cached entry (global invalidation).
func (r *Repository) ClearCache(ctx context.Context) error {
	return r.store.Clear(ctx)
}

// CacheStats returns a diagnostic snapshot of the cache store counters.
func (r *Repository) CacheStats() map[string]int64 {
	return r.store.Stats()
}
