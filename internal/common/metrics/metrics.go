// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoringRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_console_scoring_requests_total",
			Help: "Calls made to the remote scoring service by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "risk_console_scoring_request_duration_seconds",
			Help:    "Latency of remote scoring calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	AssessmentsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_console_assessments_submitted_total",
			Help: "Assessments scored and stored, by risk tier",
		},
		[]string{"risk_tier"},
	)

	StorageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_console_storage_failures_total",
			Help: "Application store read or write failures",
		},
		[]string{"op"},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_console_api_requests_total",
			Help: "HTTP API requests by route and status code",
		},
		[]string{"route", "status"},
	)
)

// Scoring outcomes used as the "outcome" label.
const (
	OutcomeSuccess      = "success"
	OutcomeServiceError = "service_error"
	OutcomeTransport    = "transport_error"
)
