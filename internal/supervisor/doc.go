// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

/*
Package supervisor provides process supervision for the recommendation
service using suture v4.

# Overview

Services are organized into three layers for failure isolation:

	RootSupervisor ("comercio-recommender")
	├── ModelSupervisor ("model-layer")
	│   ├── TrainingCoordinator ("training-worker")
	│   └── RecommendService ("recommend-service")
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventRouterService ("interaction-router", if EVENTS_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService ("http-server")

A crash in the interaction router does not affect request serving, and a
panic escaping the training worker restarts only the model layer while
the last published model keeps answering requests.

# Restart Policy

Each supervisor uses the same failure parameters (TreeConfig):

  - FailureThreshold: failures before entering backoff (default 5)
  - FailureDecay: seconds for the failure count to decay (default 30)
  - FailureBackoff: wait once the threshold is exceeded (default 15s)
  - ShutdownTimeout: per-service stop deadline (default 10s)

Services that did not stop within ShutdownTimeout are listed by
UnstoppedServiceReport.

# Logging

Supervisor events (restarts, backoff, panics) are reported through
sutureslog. The slog.Logger passed to NewSupervisorTree is normally
logging.NewSlogLogger("supervisor"), which forwards to zerolog.

# Usage

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddModelService(engine.Coordinator())
	tree.AddModelService(services.NewRecommendService(engine, schedCfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, timeout, logger))
	err := tree.Serve(ctx)
*/
package supervisor
