// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

/*
Package metrics provides Prometheus metrics collection and export for observability.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - DuckDB query performance
  - Training cycles, duration, final loss and model version
  - Which path served each recommendation (model, fallback, popular)
  - Embedding cache hit/miss rates
  - Interaction event publish and persist outcomes
  - Circuit breaker state transitions

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

All collectors are registered on the default registry through promauto, so
importing the package is enough to expose them.
*/
package metrics
