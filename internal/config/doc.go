// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

/*
Package config provides centralized configuration management for the
recommendation service.

# Configuration Sources

Configuration is layered with Koanf, later sources overriding earlier ones:
  - Built-in defaults (defaultConfig)
  - An optional YAML file from CONFIG_PATH, ./config.yaml or /etc/comercio/config.yaml
  - Environment variables mapped explicitly in envMappings

Unmapped environment variables are ignored.

# Configuration Structure

  - ServerConfig: HTTP listen address, timeouts, environment mode
  - SecurityConfig: rate limiting and CORS origins
  - DatabaseConfig: DuckDB path, memory, threads and the read circuit breaker
  - RecommendConfig: training schedule, network and clustering sizes, serving limits
  - StoreConfig: BadgerDB model snapshot persistence
  - EventsConfig: in-process interaction event bus
  - LoggingConfig: zerolog level, format and caller info

# Environment Variables

Server:
  - HTTP_PORT (default: 3857), HTTP_HOST (default: 0.0.0.0)
  - HTTP_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT, ENVIRONMENT

Database:
  - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS, DUCKDB_QUERY_TIMEOUT
  - SEED_MOCK_DATA: load the demo marketplace into an empty database
  - BREAKER_ENABLED, BREAKER_TIMEOUT, BREAKER_FAILURE_RATIO, ...

Recommendation engine:
  - RECOMMEND_TRAIN_ON_STARTUP, RECOMMEND_TRAIN_INTERVAL, RECOMMEND_CHECK_INTERVAL
  - RECOMMEND_EPOCHS, RECOMMEND_HIDDEN_SIZE, RECOMMEND_LEARNING_RATE
  - RECOMMEND_MAX_CLUSTERS, RECOMMEND_USERS_PER_CLUSTER, RECOMMEND_SEED
  - RECOMMEND_MIN_INTERACTIONS: tracked interactions required for personalization

Model store and events:
  - MODEL_STORE_ENABLED, MODEL_STORE_PATH, MODEL_STORE_KEEP
  - EVENTS_ENABLED, EVENTS_BUFFER_SIZE, EVENTS_RETRY_COUNT, EVENTS_TOPIC

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config
