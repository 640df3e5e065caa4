// Package metrics declares the Prometheus collectors exported by the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thandi_requests_total",
			Help: "Guidance requests by outcome",
		},
		[]string{"outcome"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thandi_request_duration_seconds",
			Help:    "End-to-end guidance request duration",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"outcome"},
	)

	SafetyTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thandi_safety_triggers_total",
			Help: "Requests short-circuited by a safety trigger",
		},
		[]string{"category"},
	)

	RetrievalPassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thandi_retrieval_pass_duration_seconds",
			Help:    "Duration of each hybrid-search pass",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pass"},
	)

	RetrievalCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thandi_retrieval_candidates",
			Help:    "Chunks returned by each hybrid-search pass",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		},
		[]string{"pass"},
	)

	RetrievalErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thandi_retrieval_errors_total",
			Help: "Hybrid-search passes that failed",
		},
		[]string{"pass"},
	)

	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thandi_generation_attempts_total",
			Help: "Completion attempts by provider and result",
		},
		[]string{"provider", "result"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thandi_validation_failures_total",
			Help: "Failed response checks by check name",
		},
		[]string{"check"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thandi_embedding_cache_lookups_total",
			Help: "Embedding cache lookups by result",
		},
		[]string{"result"},
	)
)
