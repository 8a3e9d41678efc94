package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh cache hits by store layer (memory, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_cache_hits_total",
			Help: "Total number of menu cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses by store layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_cache_misses_total",
			Help: "Total number of menu cache misses",
		},
		[]string{"layer"},
	)

	// CacheExpired tracks reads that found a stale entry
	CacheExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_cache_expired_reads_total",
			Help: "Total number of menu cache reads that found a stale entry",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_cache_errors_total",
			Help: "Total number of menu cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "clear"
	)
)
