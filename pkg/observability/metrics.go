// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the OAuth filter.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LookupBuckets defines histogram buckets suited for storage lookups and
// signature checks, ranging from 0.5ms to 2.5s.
var LookupBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauthfilter_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oauthfilter_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// RequestsInFlight tracks the number of requests currently being served.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "oauthfilter_requests_in_flight",
			Help: "Requests currently being served",
		},
	)

	// ResolutionsTotal counts credential resolutions by scheme, decision
	// and reason.
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauthfilter_resolutions_total",
			Help: "Credential resolutions",
		},
		[]string{"scheme", "decision", "reason"},
	)

	// ResolutionDuration records how long a resolution took, including
	// storage lookups and signature verification.
	ResolutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oauthfilter_resolution_duration_seconds",
			Help:    "Resolution duration",
			Buckets: LookupBuckets,
		},
		[]string{"scheme"},
	)

	// CollaboratorErrorsTotal counts resolutions aborted because storage or
	// signing failed.
	CollaboratorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauthfilter_collaborator_errors_total",
			Help: "Resolutions aborted by collaborator failures",
		},
		[]string{"scheme"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RequestsInFlight,
		ResolutionsTotal,
		ResolutionDuration,
		CollaboratorErrorsTotal,
	)
}

// RecordResolution records the outcome and latency of one resolution.
func RecordResolution(scheme, decision, reason string, elapsed time.Duration) {
	ResolutionsTotal.WithLabelValues(scheme, decision, reason).Inc()
	ResolutionDuration.WithLabelValues(scheme).Observe(elapsed.Seconds())
}

// RecordCollaboratorError records a resolution aborted by a failing
// collaborator.
func RecordCollaboratorError(scheme string, elapsed time.Duration) {
	CollaboratorErrorsTotal.WithLabelValues(scheme).Inc()
	ResolutionDuration.WithLabelValues(scheme).Observe(elapsed.Seconds())
}

// Handler returns the Prometheus exposition handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
