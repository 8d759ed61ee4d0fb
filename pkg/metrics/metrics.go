// Package metrics provides the centralized Prometheus metrics registry for
// the booru client. All metrics are defined in their respective packages
// (client, cache, ratelimit) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the booru client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Pacer Metrics (pkg/ratelimit):
//   - booru_pacer_waits_total (Counter): Requests delayed to honor the request cooldown
//   - booru_pacer_wait_seconds (Histogram): Time spent waiting for a request slot
//
// Cache Metrics (pkg/cache):
//   - booru_cache_hits_total (Counter): Cache hits
//   - booru_cache_misses_total (Counter): Cache misses
//   - booru_cache_stores_total (Counter): Pages written to the cache
//   - booru_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - booru_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - booru_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - booru_errors_total{kind} (Counter): Errors by kind (transport, http, decode)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(booru_cache_hits_total[5m])) /
//   (sum(rate(booru_cache_hits_total[5m])) + sum(rate(booru_cache_misses_total[5m])))
//
//   # Share of Requests Throttled
//   rate(booru_pacer_waits_total[5m]) / rate(booru_requests_total[5m])
//
//   # Request Error Rate
//   rate(booru_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(booru_request_duration_seconds_bucket[5m]))
