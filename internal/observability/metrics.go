package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records store query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quill_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"store", "operation", "table"})

	// AuthAttempts counts signup and login attempts by outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_auth_attempts_total",
		Help: "Total number of signup and login attempts by outcome",
	}, []string{"action", "outcome"})

	// PostCacheLookups counts post cache hits and misses.
	PostCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_post_cache_lookups_total",
		Help: "Total number of post cache lookups by result",
	}, []string{"result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(store, operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(store, operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordAuthAttempt increments the auth attempt counter.
func RecordAuthAttempt(action, outcome string) {
	AuthAttempts.WithLabelValues(action, outcome).Inc()
}
