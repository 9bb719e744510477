// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("fetch_candidates"))

	RecordDBQuery("fetch_candidates", 5*time.Millisecond, nil)
	RecordDBQuery("fetch_candidates", 5*time.Millisecond, errors.New("connection refused"))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("fetch_candidates"))
	if after-before != 1 {
		t.Errorf("error counter delta = %f, want 1", after-before)
	}
}

func TestRecordTrainingCycle(t *testing.T) {
	success := testutil.ToFloat64(TrainingCycles.WithLabelValues("success"))
	failure := testutil.ToFloat64(TrainingCycles.WithLabelValues("failure"))

	RecordTrainingCycle(time.Second, 120, 0.05, nil)
	RecordTrainingCycle(time.Second, 0, 0, errors.New("boom"))

	if got := testutil.ToFloat64(TrainingCycles.WithLabelValues("success")) - success; got != 1 {
		t.Errorf("success delta = %f, want 1", got)
	}
	if got := testutil.ToFloat64(TrainingCycles.WithLabelValues("failure")) - failure; got != 1 {
		t.Errorf("failure delta = %f, want 1", got)
	}
	if got := testutil.ToFloat64(TrainingLoss); got != 0.05 {
		t.Errorf("TrainingLoss = %f, want 0.05", got)
	}
	if got := testutil.ToFloat64(TrainingSamples); got != 120 {
		t.Errorf("TrainingSamples = %f, want 120", got)
	}
}

func TestRecordRecommendation(t *testing.T) {
	for _, path := range []string{"model", "fallback", "popular"} {
		t.Run(path, func(t *testing.T) {
			before := testutil.ToFloat64(Recommendations.WithLabelValues(path))
			RecordRecommendation(path, time.Millisecond)
			if got := testutil.ToFloat64(Recommendations.WithLabelValues(path)) - before; got != 1 {
				t.Errorf("delta = %f, want 1", got)
			}
		})
	}
}

func TestRecordEmbeddingLookup(t *testing.T) {
	hits := testutil.ToFloat64(EmbeddingCacheHits.WithLabelValues("user"))
	misses := testutil.ToFloat64(EmbeddingCacheMisses.WithLabelValues("user"))

	RecordEmbeddingLookup("user", true)
	RecordEmbeddingLookup("user", false)
	RecordEmbeddingLookup("user", false)

	if got := testutil.ToFloat64(EmbeddingCacheHits.WithLabelValues("user")) - hits; got != 1 {
		t.Errorf("hits delta = %f, want 1", got)
	}
	if got := testutil.ToFloat64(EmbeddingCacheMisses.WithLabelValues("user")) - misses; got != 2 {
		t.Errorf("misses delta = %f, want 2", got)
	}
}

func TestRecordInteractionEvent(t *testing.T) {
	ok := testutil.ToFloat64(InteractionEvents.WithLabelValues("persist", "success"))
	bad := testutil.ToFloat64(InteractionEvents.WithLabelValues("persist", "failure"))

	RecordInteractionEvent("persist", nil)
	RecordInteractionEvent("persist", errors.New("disk full"))

	if got := testutil.ToFloat64(InteractionEvents.WithLabelValues("persist", "success")) - ok; got != 1 {
		t.Errorf("success delta = %f, want 1", got)
	}
	if got := testutil.ToFloat64(InteractionEvents.WithLabelValues("persist", "failure")) - bad; got != 1 {
		t.Errorf("failure delta = %f, want 1", got)
	}
}
