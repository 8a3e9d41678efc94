// Package metrics provides the centralized Prometheus metrics registry
// for the menu catalog client. All metrics are defined in their
// respective packages (repository, cache, remote) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the menu catalog
// client. All metrics are automatically registered via promauto in
// their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Repository Metrics (pkg/repository):
//   - menu_fetches_total{outcome} (Counter): Fetches by outcome (cache_hit, remote, fallback, error)
//   - menu_fetch_duration_seconds (Histogram): Fetch duration
//   - menu_background_refresh_total{status} (Counter): Background refreshes by status (ok, error)
//
// Cache Metrics (pkg/cache):
//   - menu_cache_hits_total{layer} (Counter): Fresh cache hits by store layer (memory, redis)
//   - menu_cache_misses_total{layer} (Counter): Cache misses
//   - menu_cache_expired_reads_total{layer} (Counter): Reads that found a stale entry
//   - menu_cache_errors_total{operation} (Counter): Cache operation errors (get, set, clear)
//
// Remote Source Metrics (pkg/remote):
//   - menu_remote_requests_total{status} (Counter): Menu API requests by HTTP status
//   - menu_remote_request_duration_seconds (Histogram): Menu API request duration
//   - menu_remote_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - menu_remote_retries_total{error_class} (Counter): Retry attempts by error class
//   - menu_remote_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - menu_remote_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(menu_cache_hits_total[5m])) /
//   (sum(rate(menu_cache_hits_total[5m])) + sum(rate(menu_cache_misses_total[5m])))
//
//   # Fallback Rate (degraded serving)
//   rate(menu_fetches_total{outcome="fallback"}[5m]) / rate(menu_fetches_total[5m])
//
//   # Background Refresh Failure Rate
//   rate(menu_background_refresh_total{status="error"}[5m])
//
//   # P95 Fetch Latency
//   histogram_quantile(0.95, rate(menu_fetch_duration_seconds_bucket[5m]))
