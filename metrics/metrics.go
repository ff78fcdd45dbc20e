// Package metrics provides Prometheus metrics for the HTTP server and the diagnostic engine.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Domain metrics:
//   - diagnostics_total: Counter of returned results by analysis_type
//   - diagnostic_emergency_total: Counter of runs that ended in the emergency result
//   - diagnostic_symptom_ids_dropped_total: Counter of submitted symptom ids dropped by reason (invalid, over_limit)
//   - external_scorer_requests_total: Counter of external scorer calls by outcome (ok, disabled, error, invalid)
//   - knowledge_base_reloads_total: Counter of reload attempts by status
//
// All metrics are registered with the Prometheus default registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	DiagnosticsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnostics_total",
			Help: "Diagnostic results returned, by analysis type",
		},
		[]string{"analysis_type"},
	)

	DiagnosticEmergencyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "diagnostic_emergency_total",
			Help: "Diagnostic runs answered with the emergency result",
		},
	)

	SymptomIDsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnostic_symptom_ids_dropped_total",
			Help: "Submitted symptom ids dropped from a selection by reason (invalid, over_limit)",
		},
		[]string{"reason"},
	)

	ExternalScorerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_scorer_requests_total",
			Help: "External scorer calls by outcome (ok, disabled, error, invalid)",
		},
		[]string{"outcome"},
	)

	KnowledgeBaseReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_base_reloads_total",
			Help: "Knowledge base reload attempts by status (success, failure, skipped)",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(DiagnosticsTotal)
	prometheus.MustRegister(DiagnosticEmergencyTotal)
	prometheus.MustRegister(SymptomIDsDropped)
	prometheus.MustRegister(ExternalScorerRequests)
	prometheus.MustRegister(KnowledgeBaseReloads)
}
