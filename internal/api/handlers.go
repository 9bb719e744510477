// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/comercio-recommender/internal/logging"
	"github.com/tomtom215/comercio-recommender/internal/recommend"
	"github.com/tomtom215/comercio-recommender/internal/validation"
)

// Engine is the part of recommend.Engine the HTTP layer serves.
type Engine interface {
	GetRecommendations(ctx context.Context, userID int64, limit int) []recommend.Recommendation
	GetPopularRecommendations(ctx context.Context, limit int) []recommend.Recommendation
	TrackInteraction(ctx context.Context, userID, productID int64, action, sessionID string) (*recommend.Interaction, error)
	AnalyzeUserProfile(ctx context.Context, userID int64) (*recommend.UserProfile, error)
	ScoreProduct(ctx context.Context, userID, productID int64) (*recommend.ProductScore, error)
	Status() recommend.TrainingStatus
	TriggerTraining(reason string) bool
}

// Pinger reports database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunningChecker reports whether a background component is running.
type RunningChecker interface {
	IsRunning() bool
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status            string               `json:"status"`
	Message           string               `json:"message"`
	Version           string               `json:"version"`
	DatabaseConnected bool                 `json:"database_connected"`
	EventsRunning     *bool                `json:"events_running,omitempty"`
	ModelState        recommend.ModelState `json:"model_state"`
	ModelVersion      int64                `json:"model_version"`
	Uptime            float64              `json:"uptime_seconds"`
}

// TrainResponse is the body of POST /model/train.
type TrainResponse struct {
	Queued bool                     `json:"queued"`
	Status recommend.TrainingStatus `json:"status"`
}

// Handler serves the /api/ai endpoints.
type Handler struct {
	engine    Engine
	db        Pinger
	events    RunningChecker
	version   string
	startTime time.Time
}

// NewHandler creates a handler. db may be nil, in which case health reports
// the database as disconnected.
func NewHandler(engine Engine, db Pinger, version string) *Handler {
	return &Handler{
		engine:    engine,
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

// SetEventBus makes health report the interaction router's state.
func (h *Handler) SetEventBus(events RunningChecker) {
	h.events = events
}

// GetRecommendations handles GET /api/ai/recommendations/{userId}?limit=
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidUserID, "User ID must be a positive integer", nil)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	h.serveRecommendations(w, r, RecommendationRequest{UserID: userID, Limit: limit})
}

// PostRecommendations handles POST /api/ai/recommendations.
func (h *Handler) PostRecommendations(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	h.serveRecommendations(w, r, req)
}

func (h *Handler) serveRecommendations(w http.ResponseWriter, r *http.Request, req RecommendationRequest) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	recs := h.engine.GetRecommendations(r.Context(), req.UserID, req.Limit)
	logging.Ctx(r.Context()).Debug().
		Int64("user_id", req.UserID).
		Int("count", len(recs)).
		Msg("Recommendations served")
	respondList(w, r, recs)
}

// GetPopular handles GET /api/ai/recommendations/popular?limit=
func (h *Handler) GetPopular(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	req := PopularRequest{Limit: limit}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	respondList(w, r, h.engine.GetPopularRecommendations(r.Context(), req.Limit))
}

// TrackInteraction handles POST /api/ai/interactions. The interaction is
// accepted once published; persistence happens off the request path.
func (h *Handler) TrackInteraction(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	in, err := h.engine.TrackInteraction(r.Context(), req.UserID, req.ProductID, req.ActionType, req.SessionID)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	respondJSON(w, r, http.StatusAccepted, newInteractionAccepted(in))
}

// GetProfile handles GET /api/ai/profile/{userId}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidUserID, "User ID must be a positive integer", nil)
		return
	}

	profile, err := h.engine.AnalyzeUserProfile(r.Context(), userID)
	if err != nil {
		respondEngineError(w, r, err, "Failed to analyze user profile")
		return
	}
	respondJSON(w, r, http.StatusOK, profile)
}

// GetScore handles GET /api/ai/score/{userId}/{productId}.
func (h *Handler) GetScore(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidUserID, "User ID must be a positive integer", nil)
		return
	}
	productID, err := parseID(chi.URLParam(r, "productId"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidProductID, "Product ID must be a positive integer", nil)
		return
	}

	score, err := h.engine.ScoreProduct(r.Context(), userID, productID)
	if err != nil {
		respondEngineError(w, r, err, "Failed to score product")
		return
	}
	respondJSON(w, r, http.StatusOK, score)
}

// Health handles GET /api/ai/health. It always answers 200 while the
// process is serving; degraded dependencies are reported in the body.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil
	status := h.engine.Status()

	health := HealthStatus{
		Status:            "healthy",
		Message:           "AI Recommendation Service is running",
		Version:           h.version,
		DatabaseConnected: dbConnected,
		ModelState:        status.State,
		ModelVersion:      status.Version,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.events != nil {
		running := h.events.IsRunning()
		health.EventsRunning = &running
		if !running {
			health.Status = "degraded"
		}
	}
	if !dbConnected {
		health.Status = "degraded"
	}

	respondJSON(w, r, http.StatusOK, health)
}

// ModelStatus handles GET /api/ai/model/status.
func (h *Handler) ModelStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.engine.Status())
}

// TriggerTraining handles POST /api/ai/model/train. It answers 202 when a
// cycle was queued and 200 when one is already queued or running.
func (h *Handler) TriggerTraining(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}
	if req.Reason == "" {
		req.Reason = "api"
	}

	queued := h.engine.TriggerTraining(req.Reason)
	logging.Ctx(r.Context()).Info().Bool("queued", queued).Str("reason", req.Reason).Msg("Training requested")

	code := http.StatusOK
	if queued {
		code = http.StatusAccepted
	}
	respondJSON(w, r, code, TrainResponse{Queued: queued, Status: h.engine.Status()})
}

// respondEngineError maps engine errors to HTTP statuses.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, recommend.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, recommend.ErrNoModel):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeModelNotReady, "No trained model is available yet", err)
	case errors.Is(err, recommend.ErrDataUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message, err)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message, err)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, message, err)
	}
}
