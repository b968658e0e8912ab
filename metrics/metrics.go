package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modmuse_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modmuse_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Recommendation engine
	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modmuse_recommendation_duration_seconds",
			Help:    "Duration of a full recommendation request in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modmuse_recommendations_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"}, // "success", "validation_error", "understanding_error", "store_error"
	)

	RecommendationCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modmuse_recommendation_candidates",
			Help:    "Number of candidate mods per branch",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"branch"}, // "semantic", "keyword", "merged"
	)

	DegradedBranches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modmuse_degraded_branches_total",
			Help: "Number of requests where one understanding call failed",
		},
		[]string{"branch"},
	)

	// Text understanding capability
	UnderstandingCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modmuse_understanding_calls_total",
			Help: "Calls to the text understanding capability by result",
		},
		[]string{"breaker", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "modmuse_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modmuse_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"breaker", "from", "to"},
	)

	// Catalog maintenance
	BackfillMods = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modmuse_backfill_mods_total",
			Help: "Mods handled by the embedding backfill by result",
		},
		[]string{"result"}, // "embedded", "skipped", "failed"
	)
)
