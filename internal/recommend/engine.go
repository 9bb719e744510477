// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/comercio-recommender/internal/metrics"
)

// Note: This package has no dependencies on the database or transport
// packages. DataProvider, InteractionStore and InteractionPublisher are
// implemented elsewhere and injected at startup.

// Serving paths reported in metrics.
const (
	pathModel    = "model"
	pathFallback = "fallback"
	pathPopular  = "popular"
)

// Engine is the entry point for recommendations, interaction tracking and
// profile analysis. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	now    func() time.Time

	source       DataProvider
	interactions InteractionStore
	publisher    InteractionPublisher

	features    *FeatureStore
	embeddings  *EmbeddingGenerator
	policy      *SegmentPolicy
	ranker      *HybridRanker
	handle      *ModelHandle
	coordinator *TrainingCoordinator
}

// NewEngine creates a recommendation engine. newScorer and clusterer supply
// the model implementations used by each training cycle.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, source DataProvider, newScorer ScorerFactory, clusterer Clusterer, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil {
		return nil, errors.New("data provider is required")
	}
	if newScorer == nil || clusterer == nil {
		return nil, errors.New("scorer factory and clusterer are required")
	}

	logger = logger.With().Str("component", "recommend").Logger()
	embeddings := NewEmbeddingGenerator(cfg.Cache)
	policy := NewSegmentPolicy(cfg.Segments)
	handle := &ModelHandle{}

	return &Engine{
		config:      cfg,
		logger:      logger,
		now:         time.Now,
		source:      source,
		features:    NewFeatureStore(source),
		embeddings:  embeddings,
		policy:      policy,
		ranker:      NewHybridRanker(cfg, embeddings, policy, logger),
		handle:      handle,
		coordinator: NewTrainingCoordinator(cfg, source, newScorer, clusterer, embeddings, handle, logger),
	}, nil
}

// SetInteractionStore enables profile statistics and the minimum-interaction
// gate for personalized results.
func (e *Engine) SetInteractionStore(store InteractionStore) {
	e.interactions = store
}

// SetPublisher sets the destination for tracked interactions.
func (e *Engine) SetPublisher(pub InteractionPublisher) {
	e.publisher = pub
}

// SetSnapshotStore enables model persistence.
func (e *Engine) SetSnapshotStore(store SnapshotStore) {
	e.coordinator.SetSnapshotStore(store)
}

// Coordinator returns the training coordinator so the caller can run its
// worker under a supervisor.
func (e *Engine) Coordinator() *TrainingCoordinator {
	return e.coordinator
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// GetRecommendations returns up to limit products for userID. It never
// fails: any problem on the personalized path yields the popularity list.
func (e *Engine) GetRecommendations(ctx context.Context, userID int64, limit int) []Recommendation {
	start := e.now()
	limit = e.config.ClampK(limit)

	recs, err := e.personalized(ctx, userID, limit)
	if err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).Msg("personalized recommendations unavailable, using popularity")
	}
	if err == nil && len(recs) > 0 {
		metrics.RecordRecommendation(pathModel, e.now().Sub(start))
		return recs
	}

	recs = e.popular(ctx, limit)
	metrics.RecordRecommendation(pathFallback, e.now().Sub(start))
	return recs
}

// GetPopularRecommendations returns the popularity list directly.
func (e *Engine) GetPopularRecommendations(ctx context.Context, limit int) []Recommendation {
	start := e.now()
	recs := e.popular(ctx, e.config.ClampK(limit))
	metrics.RecordRecommendation(pathPopular, e.now().Sub(start))
	return recs
}

// personalized runs the model path. A nil, nil result means the caller
// should serve the popularity list.
func (e *Engine) personalized(ctx context.Context, userID int64, limit int) (recs []Recommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			recs, err = nil, fmt.Errorf("recommendation panic: %v", r)
		}
	}()

	if ok, err := e.hasEnoughInteractions(ctx, userID); err != nil || !ok {
		return nil, err
	}

	snap := e.coordinator.EnsureReady()
	if snap == nil {
		return nil, ErrNoModel
	}

	var (
		features   FeatureVector
		candidates []CandidateProduct
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fv, ok, err := e.features.UserFeatures(gctx, userID)
		if err != nil {
			return err
		}
		if ok {
			features = fv
		}
		return nil
	})
	g.Go(func() error {
		c, err := e.source.FetchCandidateProducts(gctx, userID)
		if err != nil {
			return fmt.Errorf("%w: candidates for user %d: %w", ErrDataUnavailable, userID, err)
		}
		candidates = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	return e.ranker.Rank(snap, UserContext{UserID: userID, Features: features}, candidates, limit)
}

func (e *Engine) hasEnoughInteractions(ctx context.Context, userID int64) (bool, error) {
	minimum := e.config.Training.MinInteractionsForPersonalized
	if minimum <= 0 || e.interactions == nil {
		return true, nil
	}
	stats, err := e.interactions.FetchInteractionStats(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("%w: interaction stats for user %d: %w", ErrDataUnavailable, userID, err)
	}
	return stats != nil && stats.Total >= int64(minimum), nil
}

// popular maps the popularity ranking to recommendations. Data errors give
// an empty list.
func (e *Engine) popular(ctx context.Context, limit int) []Recommendation {
	products, err := e.source.RecordPopularityCounts(ctx, limit)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to load popular products")
		return []Recommendation{}
	}

	recs := make([]Recommendation, 0, len(products))
	for i := range products {
		p := &products[i]
		category := p.Category
		if category == "" {
			category = DefaultCategory
		}
		recs = append(recs, Recommendation{
			ProductID:    p.ProductID,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			ProducerName: p.ProducerName,
			Category:     category,
			Score:        max(0, p.PopularityCount),
			Reason:       ReasonPopularity,
		})
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// TrackInteraction records a user action. Only invalid input is reported;
// delivery happens asynchronously and its failures are logged.
func (e *Engine) TrackInteraction(ctx context.Context, userID, productID int64, action, sessionID string) (*Interaction, error) {
	actionType, err := ParseInteractionType(action)
	if err != nil {
		return nil, err
	}
	if userID <= 0 || productID <= 0 {
		return nil, fmt.Errorf("invalid interaction: user %d product %d", userID, productID)
	}

	in := &Interaction{
		EventID:    uuid.NewString(),
		UserID:     userID,
		ProductID:  productID,
		ActionType: actionType,
		Score:      actionType.DefaultScore(),
		SessionID:  sessionID,
		CreatedAt:  e.now().UTC(),
	}

	if e.publisher == nil {
		e.logger.Debug().Str("event_id", in.EventID).Msg("no interaction publisher configured, event discarded")
		return in, nil
	}
	if err := e.publisher.PublishInteraction(ctx, in); err != nil {
		metrics.RecordInteractionEvent("publish", err)
		e.logger.Warn().Err(err).
			Int64("user_id", userID).
			Int64("product_id", productID).
			Str("action_type", string(actionType)).
			Msg("failed to publish interaction")
		return in, nil
	}
	metrics.RecordInteractionEvent("publish", nil)
	return in, nil
}

// AnalyzeUserProfile summarizes a user's activity and their standing in the
// current model.
func (e *Engine) AnalyzeUserProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	stats := &InteractionStats{}
	if e.interactions != nil {
		s, err := e.interactions.FetchInteractionStats(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%w: interaction stats for user %d: %w", ErrDataUnavailable, userID, err)
		}
		if s != nil {
			stats = s
		}
	}

	profile := &UserProfile{
		UserID:              userID,
		TotalInteractions:   stats.Total,
		TotalViews:          stats.Views,
		TotalCartAdds:       stats.CartAdds,
		TotalPurchases:      stats.Purchases,
		TotalFavorites:      stats.Favorites,
		PurchaseFrequency:   PurchaseFrequency(stats),
		AverageSpending:     stats.AverageSpending,
		FavoriteCategory:    stats.FavoriteCategory,
		LastActivity:        stats.LastActivity,
		ModelState:          e.coordinator.State(),
		UserEmbeddingCached: e.embeddings.HasUser(userID),
	}

	snap := e.handle.Load()
	if snap != nil {
		profile.ModelTrained = true
		trainedAt := snap.TrainedAt
		profile.LastModelUpdate = &trainedAt
		if _, ok := snap.UserEmbedding(userID); ok {
			profile.UserEmbeddingCached = true
		}
		if seg, ok := snap.Segment(userID); ok {
			profile.UserSegment = seg
			profile.SegmentFromClustering = true
			return profile, nil
		}
	}

	fv, ok, err := e.features.UserFeatures(ctx, userID)
	if err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).Msg("user features unavailable for segment")
	}
	if !ok {
		fv = ZeroUserVector()
	}
	profile.UserSegment = e.policy.HeuristicSegment(fv)
	return profile, nil
}

// PurchaseFrequency returns interactions per purchase, 0 without purchases.
func PurchaseFrequency(stats *InteractionStats) float64 {
	if stats == nil || stats.Purchases == 0 {
		return 0
	}
	return float64(stats.Total) / float64(stats.Purchases)
}

// ProductScore explains the model score of one product for one user.
type ProductScore struct {
	UserID     int64   `json:"userId"`
	ProductID  int64   `json:"productId"`
	Affinity   float64 `json:"affinity"`
	Segment    Segment `json:"segment"`
	Multiplier float64 `json:"multiplier"`
	Score      float64 `json:"score"`
	Version    int64   `json:"modelVersion"`
}

// ScoreProduct scores a single product for a user with the current model.
// It does not trigger training.
func (e *Engine) ScoreProduct(ctx context.Context, userID, productID int64) (*ProductScore, error) {
	snap := e.handle.Load()
	if snap == nil {
		return nil, ErrNoModel
	}

	row, err := e.source.FetchProductRow(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: product row %d: %w", ErrDataUnavailable, productID, err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	fv, _, err := e.features.UserFeatures(ctx, userID)
	if err != nil {
		return nil, err
	}

	affinity, segment, score, err := e.ranker.Affinity(snap, UserContext{UserID: userID, Features: fv}, row)
	if err != nil {
		return nil, err
	}
	return &ProductScore{
		UserID:     userID,
		ProductID:  productID,
		Affinity:   affinity,
		Segment:    segment,
		Multiplier: e.policy.Multiplier(segment, row.Price),
		Score:      score,
		Version:    snap.Version,
	}, nil
}

// Status reports the training coordinator's view of the model.
func (e *Engine) Status() TrainingStatus {
	return e.coordinator.Status()
}

// State returns the model lifecycle state.
func (e *Engine) State() ModelState {
	return e.coordinator.State()
}

// TriggerTraining queues a training cycle unless one is already queued or running.
func (e *Engine) TriggerTraining(reason string) bool {
	return e.coordinator.Trigger(reason)
}

// TriggerIfStale queues a cycle when the model is missing or stale.
func (e *Engine) TriggerIfStale() bool {
	return e.coordinator.TriggerIfStale()
}
