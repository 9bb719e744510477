// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

/*
Package events carries tracked interactions from the HTTP request that
reports them to the database, off the request path.

# Flow

	POST /api/ai/interactions
	    -> Engine.TrackInteraction
	    -> Publisher.PublishInteraction  (JSON on a GoChannel topic)
	    -> Router handler "persist-interactions"
	    -> InteractionStore.RecordInteraction

The message UUID is the interaction's event ID and the insert is idempotent
on it, so redelivery after a retry never double counts.

# Failure Handling

Store errors are retried with exponential backoff. An interaction that
still fails is moved to "<topic>.poison", logged and counted under
interaction_events_total{stage="poison"}. Payloads that cannot be decoded
are dropped immediately.

When the bus is disabled, SyncPublisher writes interactions inline instead.
*/
package events
