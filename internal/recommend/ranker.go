// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/comercio-recommender/internal/metrics"
)

// Reasons attached to recommendations by serving path.
const (
	ReasonModel      = "AI Neural Network Prediction"
	ReasonPopularity = "Popular product"
)

// DefaultCategory is reported for products without a category.
const DefaultCategory = "General"

// HybridRanker scores candidates with the published model and orders them.
type HybridRanker struct {
	config     *Config
	embeddings *EmbeddingGenerator
	policy     *SegmentPolicy
	logger     zerolog.Logger
}

// NewHybridRanker creates a ranker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHybridRanker(cfg *Config, embeddings *EmbeddingGenerator, policy *SegmentPolicy, logger zerolog.Logger) *HybridRanker {
	return &HybridRanker{
		config:     cfg,
		embeddings: embeddings,
		policy:     policy,
		logger:     logger.With().Str("component", "ranker").Logger(),
	}
}

// UserContext is what the ranker knows about the requesting user.
type UserContext struct {
	UserID int64

	// Features is the user's feature vector, nil for cold-start users.
	Features FeatureVector
}

// Rank scores every candidate, applies the segment boost, sorts by score
// descending (ties keep catalog order) and truncates to limit. Candidates
// that fail to score are dropped.
func (r *HybridRanker) Rank(snap *ModelSnapshot, user UserContext, candidates []CandidateProduct, limit int) ([]Recommendation, error) {
	if snap == nil || snap.Scorer == nil {
		return nil, ErrNoModel
	}

	userEmb := r.userEmbedding(snap, user)
	segment := r.userSegment(snap, user)

	if len(candidates) > r.config.Limits.MaxCandidates {
		candidates = candidates[:r.config.Limits.MaxCandidates]
	}

	recs := make([]Recommendation, 0, len(candidates))
	for i := range candidates {
		rec, err := r.score(snap, userEmb, segment, &candidates[i])
		if err != nil {
			metrics.PredictionFailures.Inc()
			r.logger.Warn().Err(err).Int64("user_id", user.UserID).Msg("candidate dropped")
			continue
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Affinity returns the raw model prediction and the boosted score for one
// user/product pair.
func (r *HybridRanker) Affinity(snap *ModelSnapshot, user UserContext, product *ProductRow) (affinity float64, segment Segment, score float64, err error) {
	if snap == nil || snap.Scorer == nil {
		return 0, 0, 0, ErrNoModel
	}
	userEmb := r.userEmbedding(snap, user)
	segment = r.userSegment(snap, user)
	affinity, err = r.predict(snap, userEmb, product.ProductID, product)
	if err != nil {
		return 0, segment, 0, err
	}
	score = r.policy.Boost(affinity*r.config.Network.ScoreScale, segment, product.Price)
	return affinity, segment, score, nil
}

func (r *HybridRanker) score(snap *ModelSnapshot, userEmb Embedding, segment Segment, c *CandidateProduct) (Recommendation, error) {
	row := c.Row()
	affinity, err := r.predict(snap, userEmb, c.ProductID, &row)
	if err != nil {
		return Recommendation{}, err
	}

	category := c.Category
	if category == "" {
		category = DefaultCategory
	}
	return Recommendation{
		ProductID:    c.ProductID,
		Name:         c.Name,
		Description:  c.Description,
		Price:        c.Price,
		ProducerName: c.ProducerName,
		Category:     category,
		Score:        r.policy.Boost(affinity*r.config.Network.ScoreScale, segment, c.Price),
		Reason:       ReasonModel,
	}, nil
}

// predict scores one product. A panic while scoring becomes a
// *PredictionError so only this product is lost.
func (r *HybridRanker) predict(snap *ModelSnapshot, userEmb Embedding, productID int64, row *ProductRow) (p float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, err = 0, &PredictionError{ProductID: productID, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	if err := row.Validate(); err != nil {
		return 0, &PredictionError{ProductID: productID, Err: err}
	}
	productEmb := r.productEmbedding(snap, row)
	input, err := CombineEmbeddings(userEmb, productEmb)
	if err != nil {
		return 0, &PredictionError{ProductID: productID, Err: err}
	}
	p, err = snap.Scorer.Predict(input)
	if err != nil {
		return 0, &PredictionError{ProductID: productID, Err: err}
	}
	return p, nil
}

func (r *HybridRanker) userEmbedding(snap *ModelSnapshot, user UserContext) Embedding {
	if e, ok := snap.UserEmbedding(user.UserID); ok {
		return e
	}
	if e, ok := r.embeddings.CachedUser(user.UserID); ok {
		return e
	}
	fv := user.Features
	if fv == nil {
		fv = ZeroUserVector()
	}
	return r.embeddings.EmbedUser(user.UserID, fv)
}

func (r *HybridRanker) productEmbedding(snap *ModelSnapshot, row *ProductRow) Embedding {
	if e, ok := snap.ProductEmbedding(row.ProductID); ok {
		return e
	}
	if e, ok := r.embeddings.CachedProduct(row.ProductID); ok {
		return e
	}
	return r.embeddings.EmbedProduct(row.ProductID, ProductVector(row))
}

func (r *HybridRanker) userSegment(snap *ModelSnapshot, user UserContext) Segment {
	if seg, ok := snap.Segment(user.UserID); ok {
		return seg
	}
	fv := user.Features
	if fv == nil {
		fv = ZeroUserVector()
	}
	return r.policy.HeuristicSegment(fv)
}
