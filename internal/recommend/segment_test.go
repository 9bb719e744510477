// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"math"
	"testing"
)

func TestSegmentPolicy_Boost(t *testing.T) {
	policy := NewSegmentPolicy(DefaultConfig().Segments)

	tests := []struct {
		name    string
		segment Segment
		price   float64
		want    float64
	}{
		{"casual cheap", SegmentCasual, 150, 120},
		{"casual expensive", SegmentCasual, 250, 80},
		{"casual at threshold", SegmentCasual, 200, 80},
		{"producer equipment", SegmentProducer, 150, 130},
		{"producer cheap", SegmentProducer, 50, 100},
		{"producer at threshold", SegmentProducer, 100, 100},
		{"premium expensive", SegmentPremium, 600, 140},
		{"premium mid", SegmentPremium, 300, 90},
		{"no rule", Segment(9), 600, 100},
		{"general", SegmentGeneral, 10, 100},
		{"negative segment", Segment(-1), 10, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Boost(100, tt.segment, tt.price)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Boost(100, %d, %.0f) = %f, want %f", tt.segment, tt.price, got, tt.want)
			}
		})
	}
}

func TestSegmentPolicy_RulesAreCopied(t *testing.T) {
	cfg := DefaultConfig().Segments
	policy := NewSegmentPolicy(cfg)
	cfg.Rules[0].Match = 10
	if got := policy.Multiplier(SegmentCasual, 10); got != 1.2 {
		t.Errorf("Multiplier() = %f after mutating config, want 1.2", got)
	}
}

func TestSegmentPolicy_HeuristicSegment(t *testing.T) {
	policy := NewSegmentPolicy(DefaultConfig().Segments)

	tests := []struct {
		name string
		fv   FeatureVector
		want Segment
	}{
		{"producer", FeatureVector{0, 0, 0.5, 0, 1, 0, 0, 0}, SegmentProducer},
		{"premium buyer", FeatureVector{0.9, 0.9, 0, 0, 0, 0, 0, 0}, SegmentPremium},
		{"casual", FeatureVector{0, 0, 0, 0.8, 0, 0, 0.6, 0}, SegmentCasual},
		{"general", FeatureVector{0.1, 0.1, 0.1, 0.1, 0, 0, 0.1, 0}, SegmentGeneral},
		{"wrong length", FeatureVector{1, 1}, SegmentGeneral},
		{"cold start", ZeroUserVector(), SegmentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.HeuristicSegment(tt.fv); got != tt.want {
				t.Errorf("HeuristicSegment() = %d, want %d", got, tt.want)
			}
		})
	}
}
