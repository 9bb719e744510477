// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BasePath prefixes every recommendation endpoint.
const BasePath = "/api/ai"

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler        *Handler
	chiMiddleware  *ChiMiddleware
	requestTimeout time.Duration
}

// NewRouter creates a router. A zero requestTimeout disables the
// per-request deadline.
func NewRouter(handler *Handler, mw *ChiMiddleware, requestTimeout time.Duration) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:        handler,
		chiMiddleware:  mw,
		requestTimeout: requestTimeout,
	}
}

// Setup builds the HTTP handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(RequestIDWithLogging())      // X-Request-ID plus logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(AccessLog)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	h := router.handler
	r.Route(BasePath, func(r chi.Router) {
		r.Use(PrometheusMetrics)

		// Health is exempt from rate limiting so probes never see 429.
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			if router.requestTimeout > 0 {
				r.Use(chimiddleware.Timeout(router.requestTimeout))
			}

			// Static segments win over {userId} in chi's radix tree.
			r.Get("/recommendations/popular", h.GetPopular)
			r.Get("/recommendations/{userId}", h.GetRecommendations)
			r.Post("/recommendations", h.PostRecommendations)

			r.Post("/interactions", h.TrackInteraction)
			r.Get("/profile/{userId}", h.GetProfile)
			r.Get("/score/{userId}/{productId}", h.GetScore)

			r.Get("/model/status", h.ModelStatus)
			r.Post("/model/train", h.TriggerTraining)
		})
	})

	return r
}
