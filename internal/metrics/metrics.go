package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// MatchRuns counts solves by source (store, inline, schedule) and outcome status
	MatchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "match_runs_total", Help: "Matching runs by source and status."},
		[]string{"source", "status"},
	)
	// MatchDuration records engine wall time in seconds
	MatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "match_duration_seconds", Help: "Matching engine duration in seconds.", Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}},
		[]string{"source"},
	)
	// MatchProblemSize records max(drivers, riders), the side of the padded matrix
	MatchProblemSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "match_problem_size", Help: "Side of the padded assignment matrix.", Buckets: prometheus.ExponentialBuckets(1, 2, 12)},
	)
	// MatchedPairs counts accepted driver/rider assignments
	MatchedPairs = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "match_assignments_total", Help: "Accepted driver-rider assignments."},
	)

	// WebhookDeliveries counts webhook delivery outcomes by event type and status
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	// WebhookLatency tracks webhook delivery latencies in milliseconds
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(
			HTTPRequests, HTTPDuration,
			MatchRuns, MatchDuration, MatchProblemSize, MatchedPairs,
			WebhookDeliveries, WebhookLatency,
		)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
