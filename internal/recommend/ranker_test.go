// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/comercio-recommender/internal/metrics"
)

// priceScorer predicts the first product embedding component, which grows
// with price.
func priceScorer() *fakeScorer {
	s := newFakeScorer()
	s.predict = func(input []float64) (float64, error) {
		return input[UserEmbeddingSize], nil
	}
	return s
}

func newTestRanker(cfg *Config) *HybridRanker {
	return NewHybridRanker(cfg, NewEmbeddingGenerator(cfg.Cache), NewSegmentPolicy(cfg.Segments), zerolog.Nop())
}

func candidates(prices ...float64) []CandidateProduct {
	out := make([]CandidateProduct, len(prices))
	for i, p := range prices {
		out[i] = CandidateProduct{
			ProductID:    int64(i + 1),
			Name:         "product",
			Price:        p,
			Quantity:     10,
			ProducerName: "farm",
		}
	}
	return out
}

func TestHybridRanker_Rank(t *testing.T) {
	cfg := DefaultConfig()
	r := newTestRanker(cfg)
	snap := &ModelSnapshot{
		Version:   1,
		TrainedAt: time.Now(),
		Scorer:    priceScorer(),
		Segments:  map[int64]Segment{1: SegmentPremium},
	}

	recs, err := r.Rank(snap, UserContext{UserID: 1}, candidates(50, 600, 300), 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}

	order := []int64{recs[0].ProductID, recs[1].ProductID, recs[2].ProductID}
	if !reflect.DeepEqual(order, []int64{2, 3, 1}) {
		t.Errorf("order = %v, want [2 3 1]", order)
	}

	policy := NewSegmentPolicy(cfg.Segments)
	for _, rec := range recs {
		if rec.Reason != ReasonModel {
			t.Errorf("Reason = %q", rec.Reason)
		}
		if rec.Category != DefaultCategory {
			t.Errorf("Category = %q, want %q", rec.Category, DefaultCategory)
		}
		row := ProductRow{ProductID: rec.ProductID, Price: rec.Price, Quantity: 10}
		affinity := EmbedProductVector(ProductVector(&row))[0]
		want := policy.Boost(affinity*cfg.Network.ScoreScale, SegmentPremium, rec.Price)
		if math.Abs(rec.Score-want) > 1e-9 {
			t.Errorf("product %d score = %f, want %f", rec.ProductID, rec.Score, want)
		}
	}
	for i := 1; i < len(recs); i++ {
		if recs[i-1].Score < recs[i].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestHybridRanker_Deterministic(t *testing.T) {
	r := newTestRanker(DefaultConfig())
	snap := &ModelSnapshot{TrainedAt: time.Now(), Scorer: priceScorer()}
	user := UserContext{UserID: 5, Features: UserVector(&UserAggregates{OrderCount: 4, AvgOrderAmount: 300})}
	cands := candidates(10, 20, 30, 40, 900, 150)

	first, err := r.Rank(snap, user, cands, 4)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	second, _ := r.Rank(snap, user, cands, 4)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Rank() not deterministic:\n%v\n%v", first, second)
	}
}

func TestHybridRanker_TiesKeepCatalogOrder(t *testing.T) {
	r := newTestRanker(DefaultConfig())
	snap := &ModelSnapshot{
		TrainedAt: time.Now(),
		Scorer:    newFakeScorer(),
		Segments:  map[int64]Segment{1: Segment(7)},
	}

	recs, err := r.Rank(snap, UserContext{UserID: 1}, candidates(10, 20, 30, 40), 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for i, rec := range recs {
		if rec.ProductID != int64(i+1) {
			t.Errorf("position %d = product %d, want %d", i, rec.ProductID, i+1)
		}
		if rec.Score != 50 {
			t.Errorf("score = %f, want 50", rec.Score)
		}
	}
}

func TestHybridRanker_Limits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.MaxCandidates = 3
	r := newTestRanker(cfg)
	snap := &ModelSnapshot{TrainedAt: time.Now(), Scorer: priceScorer()}

	recs, err := r.Rank(snap, UserContext{UserID: 1}, candidates(1, 2, 3, 4000, 5000), 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3 (candidate cap)", len(recs))
	}
	for _, rec := range recs {
		if rec.ProductID > 3 {
			t.Errorf("product %d beyond candidate cap was scored", rec.ProductID)
		}
	}

	recs, _ = r.Rank(snap, UserContext{UserID: 1}, candidates(1, 2, 3), 2)
	if len(recs) != 2 {
		t.Errorf("len = %d, want 2 (limit)", len(recs))
	}
}

func TestHybridRanker_DropsFailedCandidates(t *testing.T) {
	r := newTestRanker(DefaultConfig())
	snap := &ModelSnapshot{TrainedAt: time.Now(), Scorer: priceScorer()}
	before := testutil.ToFloat64(metrics.PredictionFailures)

	recs, err := r.Rank(snap, UserContext{UserID: 1}, candidates(10, -5, 30), 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.ProductID == 2 {
			t.Error("invalid candidate was not dropped")
		}
	}
	if got := testutil.ToFloat64(metrics.PredictionFailures) - before; got != 1 {
		t.Errorf("prediction failures delta = %f, want 1", got)
	}
}

func TestHybridRanker_PanickingCandidateDropped(t *testing.T) {
	r := newTestRanker(DefaultConfig())
	scorer := newFakeScorer()
	calls := 0
	scorer.predict = func([]float64) (float64, error) {
		calls++
		if calls == 1 {
			panic("corrupt weights")
		}
		return 0.5, nil
	}
	snap := &ModelSnapshot{TrainedAt: time.Now(), Scorer: scorer}
	before := testutil.ToFloat64(metrics.PredictionFailures)

	recs, err := r.Rank(snap, UserContext{UserID: 1}, candidates(10, 20, 30), 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(recs) != 2 || recs[0].ProductID != 2 || recs[1].ProductID != 3 {
		t.Errorf("recs = %+v, want products 2 and 3", recs)
	}
	if got := testutil.ToFloat64(metrics.PredictionFailures) - before; got != 1 {
		t.Errorf("prediction failures delta = %f, want 1", got)
	}

	var predErr *PredictionError
	row := ProductRow{ProductID: 9, Price: 10, Quantity: 1}
	scorer.predict = func([]float64) (float64, error) { panic("boom") }
	if _, _, _, err := r.Affinity(snap, UserContext{UserID: 1}, &row); !errors.As(err, &predErr) || predErr.ProductID != 9 {
		t.Errorf("Affinity() error = %v, want *PredictionError for product 9", err)
	}
}

func TestHybridRanker_NoModel(t *testing.T) {
	r := newTestRanker(DefaultConfig())
	if _, err := r.Rank(nil, UserContext{UserID: 1}, candidates(1), 5); !errors.Is(err, ErrNoModel) {
		t.Errorf("Rank(nil) error = %v, want ErrNoModel", err)
	}
}

func TestHybridRanker_EmbeddingSources(t *testing.T) {
	cfg := DefaultConfig()
	r := newTestRanker(cfg)

	var seen [][]float64
	scorer := newFakeScorer()
	scorer.predict = func(input []float64) (float64, error) {
		seen = append(seen, append([]float64(nil), input...))
		return 0.5, nil
	}

	trained := make(Embedding, UserEmbeddingSize)
	for i := range trained {
		trained[i] = 0.9
	}
	snap := &ModelSnapshot{
		TrainedAt:      time.Now(),
		Scorer:         scorer,
		UserEmbeddings: map[int64]Embedding{1: trained},
	}

	if _, err := r.Rank(snap, UserContext{UserID: 1}, candidates(10), 1); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if seen[0][0] != 0.9 {
		t.Errorf("training embedding not used: input[0] = %f", seen[0][0])
	}

	if _, err := r.Rank(snap, UserContext{UserID: 2}, candidates(10), 1); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if seen[1][0] != 0 {
		t.Errorf("cold-start user should embed the zero vector: input[0] = %f", seen[1][0])
	}
	if !r.embeddings.HasUser(2) {
		t.Error("request-time user embedding was not cached")
	}
}
