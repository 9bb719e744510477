// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

/*
Package api exposes the recommendation engine over HTTP using the chi router.

# Endpoints

All routes live under /api/ai:

	GET  /recommendations/{userId}?limit=   personalized list (popularity fallback)
	POST /recommendations                   {"userId":1,"limit":10}
	GET  /recommendations/popular?limit=    popularity list
	POST /interactions                      track VIEW, ADD_TO_CART, PURCHASE or FAVORITE (202)
	GET  /profile/{userId}                  activity summary and model segment
	GET  /score/{userId}/{productId}        model score breakdown for one product
	GET  /health                            liveness plus dependency state
	GET  /model/status                      training coordinator status
	POST /model/train                       queue a training cycle

Prometheus metrics are served at /metrics.

# Responses

Every response uses the same envelope:

	{"success":true,"data":[...],"meta":{"request_id":"...","timestamp":"...","count":10}}
	{"success":false,"error":{"code":"VALIDATION_ERROR","message":"..."},"meta":{...}}

Recommendation endpoints never fail because of the model: the engine falls
back to the popularity list, so they answer 200 for any valid request.

# Middleware

Global: request ID and logging context, RealIP, panic recovery, CORS
(go-chi/cors), access log. Under /api/ai: Prometheus request metrics, and
for everything except /health, per-IP rate limiting (go-chi/httprate) and
an optional request timeout.
*/
package api
