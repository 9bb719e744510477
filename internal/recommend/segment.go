// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

// Segment labels produced by the heuristic. Clustered labels are arbitrary
// k-means indices that share the same boost table.
const (
	SegmentCasual   Segment = 0
	SegmentProducer Segment = 1
	SegmentPremium  Segment = 2
	SegmentGeneral  Segment = 3
)

// SegmentPolicy applies price-band multipliers per segment.
type SegmentPolicy struct {
	rules     []BoostRule
	heuristic HeuristicConfig
}

// NewSegmentPolicy creates a policy from the segment configuration.
func NewSegmentPolicy(cfg SegmentConfig) *SegmentPolicy {
	return &SegmentPolicy{
		rules:     append([]BoostRule(nil), cfg.Rules...),
		heuristic: cfg.Heuristic,
	}
}

// Multiplier returns the factor applied to a score for segment and price.
// Segments without a rule get 1.0.
func (p *SegmentPolicy) Multiplier(segment Segment, price float64) float64 {
	if segment < 0 || int(segment) >= len(p.rules) {
		return 1.0
	}
	r := p.rules[segment]
	inBand := price < r.Threshold
	if r.Above {
		inBand = price > r.Threshold
	}
	if inBand {
		return r.Match
	}
	return r.Otherwise
}

// Boost scales baseScore by the segment multiplier.
func (p *SegmentPolicy) Boost(baseScore float64, segment Segment, price float64) float64 {
	return baseScore * p.Multiplier(segment, price)
}

// HeuristicSegment places a user that has no cluster assignment, checking
// the producer, premium buyer and casual scores in that order.
func (p *SegmentPolicy) HeuristicSegment(fv FeatureVector) Segment {
	if len(fv) != UserFeatureSize {
		return SegmentGeneral
	}
	h := p.heuristic
	var (
		orders   = fv[0]
		spend    = fv[1]
		cart     = fv[2]
		recency  = fv[3]
		role     = fv[4]
		activity = fv[6]
	)

	if role*h.ProducerRoleWeight+cart*h.ProducerCartWeight > h.ProducerThreshold {
		return SegmentProducer
	}
	if orders*h.BuyerOrdersWeight+spend*h.BuyerSpendWeight > h.BuyerThreshold {
		return SegmentPremium
	}
	if recency*h.CasualRecencyWeight+activity*h.CasualActivityWeight > h.CasualThreshold {
		return SegmentCasual
	}
	return SegmentGeneral
}
