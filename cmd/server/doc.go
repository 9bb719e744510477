// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

/*
Package main is the entry point for the recommendation service.

The service tracks shopper interactions with a marketplace catalog and
serves product recommendations from a small neural scoring model, adjusted
per user segment and backed by a popularity fallback.

# Application Architecture

	RootSupervisor ("comercio-recommender")
	├── ModelSupervisor ("model-layer")
	│   ├── training-worker     (runs training cycles one at a time)
	│   └── recommend-service   (startup cycle, periodic staleness check)
	├── MessagingSupervisor ("messaging-layer")
	│   └── interaction-router  (watermill router, if EVENTS_ENABLED)
	└── APISupervisor ("api-layer")
	    └── http-server         (chi router under /api/ai)

Component initialization order:

 1. Configuration: koanf v2 (defaults, optional YAML file, environment)
 2. Logging: zerolog with JSON or console output
 3. Database: DuckDB schema bootstrap, optional demo data
 4. Engine: scorer factory, k-means clusterer, optional circuit breaker
 5. Snapshot store: BadgerDB warm start (MODEL_STORE_ENABLED)
 6. Interaction bus: watermill gochannel, or synchronous writes
 7. Supervisor tree and HTTP server

# Configuration

Common environment variables:

	HTTP_PORT, HTTP_HOST, HTTP_TIMEOUT     listen address and request timeout
	DUCKDB_PATH                            database file
	SEED_MOCK_DATA=true                    load the demo marketplace
	RECOMMEND_TRAIN_ON_STARTUP             queue a cycle at startup (default true)
	RECOMMEND_TRAIN_INTERVAL               model freshness window (default 24h)
	RECOMMEND_CHECK_INTERVAL               staleness check period (default 5m)
	MODEL_STORE_ENABLED, MODEL_STORE_PATH  snapshot persistence
	EVENTS_ENABLED                         asynchronous interaction writes
	BREAKER_ENABLED                        circuit breaker on data reads
	LOG_LEVEL, LOG_FORMAT                  logging

A YAML file found through CONFIG_PATH is watched; changes to its log level
apply without a restart.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops every
service within HTTP_SHUTDOWN_TIMEOUT; a training cycle already running
finishes first. The event bus, snapshot store and database are closed last.
*/
package main
