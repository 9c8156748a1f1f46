// Package metrics declares the prometheus collectors of the service.
// They register on the default registry, served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "attestation"

// Outcome labels shared by render and generator metrics.
const (
	OutcomeOK               = "ok"
	OutcomeCached           = "cached"
	OutcomeMissingBaseURL   = "missing_base_url"
	OutcomeMissingKeyFile   = "missing_key_file"
	OutcomeGenerationFailed = "generation_failed"
	OutcomeMissingLink      = "missing_link"
	OutcomeError            = "error"
)

var (
	// HTTPRequestsTotal counts API requests by route template.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes API latency by route template.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PlaceholderRendersTotal counts placeholder renders by variant and outcome.
	PlaceholderRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placeholder_renders_total",
			Help:      "Total number of attestation placeholder renders.",
		},
		[]string{"variant", "outcome"},
	)

	// GeneratorInvocationsTotal counts generator runs by outcome.
	GeneratorInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_invocations_total",
			Help:      "Total number of external link generator invocations.",
		},
		[]string{"outcome"},
	)

	// GeneratorDuration observes generator run time.
	GeneratorDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_duration_seconds",
			Help:      "Duration of external link generator invocations in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)
)
