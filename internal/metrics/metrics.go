package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Share tracking metrics
	SharesTrackedTotal    *prometheus.CounterVec
	SharesDuplicatesTotal prometheus.Counter

	// Store metrics
	RedisOperationsTotal   *prometheus.CounterVec
	RedisOperationDuration *prometheus.HistogramVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			SharesTrackedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "shares_tracked_total",
					Help: "Total number of share events accepted, by platform",
				},
				[]string{"platform"},
			),
			SharesDuplicatesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "shares_duplicates_total",
					Help: "Share events rejected by the dedup window",
				},
			),
			RedisOperationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "redis_operations_total",
					Help: "Total number of Redis operations",
				},
				[]string{"operation", "status"},
			),
			RedisOperationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "redis_operation_duration_seconds",
					Help:    "Redis operation latency in seconds",
					Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
				},
				[]string{"operation"},
			),
		}
	})
	return instance
}

// Get returns the metrics singleton, initializing it on first use
func Get() *Metrics {
	return Initialize()
}

// RecordRedisOperation records a single store operation outcome
func RecordRedisOperation(operation string, seconds float64, err error) {
	m := Get()
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RedisOperationsTotal.WithLabelValues(operation, status).Inc()
	m.RedisOperationDuration.WithLabelValues(operation).Observe(seconds)
}
