package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for cache operations.
var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booru_cache_hits_total",
		Help: "Total response pages served from cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booru_cache_misses_total",
		Help: "Total cache lookups that went to the API",
	})

	cacheStores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booru_cache_stores_total",
		Help: "Total response pages written to cache",
	})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booru_cache_errors_total",
		Help: "Total cache operation errors by operation",
	}, []string{"operation"})
)
