// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visioneer_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visioneer_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Recommendation engine
	RecommendOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visioneer_recommend_outcomes_total",
			Help: "Recommendation responses by source: ai, partial (ai plus fill) or fallback",
		},
		[]string{"outcome"},
	)

	// External LLM endpoint
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visioneer_llm_requests_total",
			Help: "LLM chat completions by operation and result",
		},
		[]string{"operation", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visioneer_llm_request_duration_seconds",
			Help:    "LLM chat completion latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"operation"},
	)

	LLMCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "visioneer_llm_circuit_state",
			Help: "LLM circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
