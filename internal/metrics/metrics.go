package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Social graph transition metrics
	TransitionsTotal   prometheus.CounterVec
	TransitionDuration prometheus.HistogramVec
	FanoutRecipients   prometheus.Histogram

	// Notification metrics
	NotificationsPushedTotal prometheus.CounterVec
	PushDeliveriesTotal      prometheus.CounterVec

	// Timeline cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),

			TransitionsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "social_transitions_total",
					Help: "Total number of social graph transitions by outcome",
				},
				[]string{"transition", "outcome"},
			),
			TransitionDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "social_transition_duration_seconds",
					Help:    "Transition latency in seconds, including fan-out",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"transition"},
			),
			FanoutRecipients: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "timeline_fanout_recipients",
					Help:    "Number of timelines written per published post",
					Buckets: prometheus.ExponentialBuckets(1, 4, 8),
				},
			),

			NotificationsPushedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_pushed_total",
					Help: "Total notification events appended to feeds",
				},
				[]string{"type"},
			),
			PushDeliveriesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "push_deliveries_total",
					Help: "Web push delivery attempts by result",
				},
				[]string{"result"},
			),

			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),

			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"type"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}
