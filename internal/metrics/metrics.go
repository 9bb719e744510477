// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - DuckDB data access
// - API endpoint latency and throughput
// - model training and recommendation paths
// - embedding cache efficiency
// - interaction event delivery
// - circuit breaker state

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Training Metrics
	TrainingCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_training_cycles_total",
			Help: "Total number of training cycles by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "skipped"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_training_duration_seconds",
			Help:    "Duration of training cycles in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	TrainingLoss = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_training_final_loss",
			Help: "Mean squared error of the last epoch of the last successful cycle",
		},
	)

	TrainingSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_training_samples",
			Help: "Number of samples used by the last successful cycle",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_model_version",
			Help: "Version of the currently published model snapshot",
		},
	)

	ModelState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_model_state",
			Help: "Model state (0=untrained, 1=training, 2=trained, 3=stale)",
		},
	)

	// Recommendation Metrics
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests by serving path",
		},
		[]string{"path"}, // "model", "fallback", "popular"
	)

	PredictionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_prediction_failures_total",
			Help: "Total number of candidates dropped because scoring failed",
		},
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Time to build a recommendation list",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"path"},
	)

	// Embedding Cache Metrics
	EmbeddingCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_embedding_cache_hits_total",
			Help: "Total number of embedding cache hits",
		},
		[]string{"kind"}, // "user", "product"
	)

	EmbeddingCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_embedding_cache_misses_total",
			Help: "Total number of embedding cache misses",
		},
		[]string{"kind"},
	)

	// Interaction Event Metrics
	InteractionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_events_total",
			Help: "Total number of interaction events by stage and outcome",
		},
		[]string{"stage", "outcome"}, // stage: "publish", "persist", "decode", "poison"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current consecutive failures seen by the circuit breaker",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTrainingCycle records the outcome of a training cycle.
func RecordTrainingCycle(duration time.Duration, samples int, finalLoss float64, err error) {
	TrainingDuration.Observe(duration.Seconds())
	if err != nil {
		TrainingCycles.WithLabelValues("failure").Inc()
		return
	}
	TrainingCycles.WithLabelValues("success").Inc()
	TrainingLoss.Set(finalLoss)
	TrainingSamples.Set(float64(samples))
}

// RecordRecommendation records which path served a request.
func RecordRecommendation(path string, duration time.Duration) {
	Recommendations.WithLabelValues(path).Inc()
	RecommendDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordEmbeddingLookup records an embedding cache hit or miss.
func RecordEmbeddingLookup(kind string, hit bool) {
	if hit {
		EmbeddingCacheHits.WithLabelValues(kind).Inc()
		return
	}
	EmbeddingCacheMisses.WithLabelValues(kind).Inc()
}

// RecordInteractionEvent records an interaction event at a pipeline stage.
func RecordInteractionEvent(stage string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	InteractionEvents.WithLabelValues(stage, outcome).Inc()
}
