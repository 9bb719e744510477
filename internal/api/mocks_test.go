// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// mockEngine records calls and returns canned results.
type mockEngine struct {
	mu sync.Mutex

	recs       []recommend.Recommendation
	popular    []recommend.Recommendation
	profile    *recommend.UserProfile
	profileErr error
	score      *recommend.ProductScore
	scoreErr   error
	trackErr   error
	status     recommend.TrainingStatus
	queue      bool

	lastUserID    int64
	lastLimit     int
	lastAction    string
	lastSession   string
	triggerReason string
	tracked       int
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		recs: []recommend.Recommendation{
			{ProductID: 11, Name: "Quinoa", Price: 50, Category: "Grains", Score: 72.5, Reason: "model"},
			{ProductID: 12, Name: "Maca", Price: 30, Category: "Superfoods", Score: 40.1, Reason: "model"},
		},
		popular: []recommend.Recommendation{
			{ProductID: 13, Name: "Honey", Price: 20, Category: "Produce", Score: 9, Reason: "popular"},
		},
		status: recommend.TrainingStatus{State: recommend.StateTrained, Version: 3, Samples: 120, Clusters: 5},
		queue:  true,
	}
}

func (m *mockEngine) GetRecommendations(_ context.Context, userID int64, limit int) []recommend.Recommendation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID, m.lastLimit = userID, limit
	return m.recs
}

func (m *mockEngine) GetPopularRecommendations(_ context.Context, limit int) []recommend.Recommendation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	return m.popular
}

func (m *mockEngine) TrackInteraction(_ context.Context, userID, productID int64, action, sessionID string) (*recommend.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.trackErr != nil {
		return nil, m.trackErr
	}
	m.tracked++
	m.lastUserID, m.lastAction, m.lastSession = userID, action, sessionID
	actionType, err := recommend.ParseInteractionType(action)
	if err != nil {
		return nil, err
	}
	return &recommend.Interaction{
		EventID:    "evt-1",
		UserID:     userID,
		ProductID:  productID,
		ActionType: actionType,
		Score:      actionType.DefaultScore(),
		SessionID:  sessionID,
		CreatedAt:  time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}, nil
}

func (m *mockEngine) AnalyzeUserProfile(_ context.Context, userID int64) (*recommend.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID = userID
	return m.profile, m.profileErr
}

func (m *mockEngine) ScoreProduct(_ context.Context, userID, _ int64) (*recommend.ProductScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID = userID
	return m.score, m.scoreErr
}

func (m *mockEngine) Status() recommend.TrainingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *mockEngine) TriggerTraining(reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggerReason = reason
	return m.queue
}

type mockPinger struct{ err error }

func (p mockPinger) Ping(context.Context) error { return p.err }

type mockBus struct{ running bool }

func (b mockBus) IsRunning() bool { return b.running }

var errPingFailed = errors.New("connection refused")

// testServer builds the full router with rate limiting disabled.
func testServer(t *testing.T, engine *mockEngine) http.Handler {
	t.Helper()
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"https://shop.example"},
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type"},
		RateLimitDisabled:  true,
	})
	h := NewHandler(engine, mockPinger{}, "test")
	return NewRouter(h, mw, 0).Setup()
}

// envelope mirrors APIResponse with a raw payload for per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *struct {
		RequestID string `json:"request_id"`
		Count     *int   `json:"count"`
	} `json:"meta"`
}

func do(t *testing.T, handler http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}
