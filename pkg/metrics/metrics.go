package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	SchemaUpdatesTotal   *prometheus.CounterVec
	DriftSignalsTotal    *prometheus.CounterVec
	EdgeCacheRequests    *prometheus.CounterVec
	EdgeCacheStoreErrors prometheus.Counter
	initOnce             sync.Once
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	SchemaUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schema_updates_total",
			Help: "Total number of successful schema writes.",
		},
		[]string{"operation"}, // insert, update
	)

	DriftSignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drift_signals_total",
			Help: "Total number of collected page signals.",
		},
		[]string{"drift_detected"},
	)

	EdgeCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_cache_requests_total",
			Help: "Requests seen by the edge cache.",
		},
		[]string{"result"}, // hit, miss, pass, preflight
	)

	EdgeCacheStoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edge_cache_store_errors_total",
			Help: "Background cache fills that failed.",
		},
	)
}
