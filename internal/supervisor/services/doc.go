// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

/*
Package services provides suture.Service wrappers for the recommendation
service's long-running components.

Each wrapper translates a component's own lifecycle into suture's
context-aware Serve pattern and identifies itself through fmt.Stringer.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server; ListenAndServe runs in a goroutine
  - Shutdown gets a fresh context bounded by the configured timeout
  - http.ErrServerClosed is a clean stop

Interaction Router (EventRouterService):
  - Wraps events.Bus (Start/Shutdown/IsRunning)
  - Polls IsRunning and returns ErrRouterStopped if the router dies, so
    the supervisor restarts it

Retrain Scheduler (RecommendService):
  - Queues one training cycle at startup when configured
  - Every CheckInterval, queues a cycle if the model is missing or stale
  - Training runs on the engine's own worker; the scheduler never blocks

The training worker itself (recommend.TrainingCoordinator) already
implements suture.Service and is added to the tree directly.
*/
package services
