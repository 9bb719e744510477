// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 64 << 10

// RecommendationRequest is the body of POST /recommendations and the
// parsed form of GET /recommendations/{userId}. A zero limit selects the
// configured default; limits above the configured maximum are clamped.
type RecommendationRequest struct {
	UserID int64 `json:"userId" validate:"gt=0"`
	Limit  int   `json:"limit" validate:"min=0,max=1000"`
}

// PopularRequest is the parsed form of GET /recommendations/popular.
type PopularRequest struct {
	Limit int `json:"limit" validate:"min=0,max=1000"`
}

// InteractionRequest is the body of POST /interactions.
type InteractionRequest struct {
	UserID     int64  `json:"userId" validate:"gt=0"`
	ProductID  int64  `json:"productId" validate:"gt=0"`
	ActionType string `json:"actionType" validate:"required,interaction_type"`
	SessionID  string `json:"sessionId,omitempty" validate:"max=128"`
}

// TrainRequest is the optional body of POST /model/train.
type TrainRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=64"`
}

// InteractionAccepted is returned once an interaction has been handed to
// the publisher.
type InteractionAccepted struct {
	EventID          string    `json:"eventId"`
	UserID           int64     `json:"userId"`
	ProductID        int64     `json:"productId"`
	ActionType       string    `json:"actionType"`
	InteractionScore float64   `json:"interactionScore"`
	CreatedAt        time.Time `json:"createdAt"`
}

func newInteractionAccepted(in *recommend.Interaction) InteractionAccepted {
	return InteractionAccepted{
		EventID:          in.EventID,
		UserID:           in.UserID,
		ProductID:        in.ProductID,
		ActionType:       string(in.ActionType),
		InteractionScore: in.Score,
		CreatedAt:        in.CreatedAt,
	}
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched
// when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		if allowEmpty {
			return nil
		}
		return errors.New("request body is required")
	}
	if err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parseID parses a positive path or query ID.
func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

// parseLimit reads the limit query parameter; absent means 0 (default).
func parseLimit(r *http.Request) (int, error) {
	value := r.URL.Query().Get("limit")
	if value == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer, got %q", value)
	}
	return limit, nil
}
