package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks HTTP attempts per endpoint and status class
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Total number of API request attempts",
		},
		[]string{"endpoint", "status_class"},
	)

	// ErrorsTotal tracks failed calls by error kind after retries
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_api_errors_total",
			Help: "Total number of API calls that failed, by error kind",
		},
		[]string{"endpoint", "kind"},
	)

	// RetriesTotal tracks backoff retries
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_api_retries_total",
			Help: "Total number of retried API attempts",
		},
		[]string{"endpoint"},
	)

	// RequestLatency tracks per-attempt latency
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_api_latency_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// CacheLookups tracks response cache hits and misses
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"backend", "result"},
	)

	// APIOnline is 1 while the connectivity probe reaches the API
	APIOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_api_online",
			Help: "Whether the marketplace API is reachable (1) or not (0)",
		},
	)
)

// StatusClass buckets an HTTP status for label cardinality.
func StatusClass(status int) string {
	switch {
	case status == 0:
		return "none"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
