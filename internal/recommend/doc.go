// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

// Package recommend implements personalized product recommendations for the
// marketplace.
//
// # Architecture
//
// A request flows through these components:
//
//   - FeatureStore: normalizes user aggregates and catalog rows into bounded vectors
//   - EmbeddingGenerator: projects vectors into fixed-size embeddings, cached by id
//   - Scorer: a small feed-forward network predicting user/product affinity
//   - SegmentPolicy: price-band multipliers per user segment
//   - HybridRanker: scores, boosts and orders the candidate products
//
// Training runs out of band. The TrainingCoordinator pulls a training
// snapshot from the DataProvider, trains a fresh Scorer, clusters users and
// publishes an immutable ModelSnapshot. Requests read the current snapshot
// through a ModelHandle and never wait on training.
//
// # Fallback
//
// When no model is published, the user has no candidates, or anything on
// the personalized path fails, the engine serves the popularity list.
// GetRecommendations never returns an error.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, provider,
//	    func() recommend.Scorer { return algorithms.NewNeuralScorer(netCfg, rng) },
//	    algorithms.NewKMeans(kmCfg, rng), logger)
//	if err != nil {
//	    return err
//	}
//	go engine.Coordinator().Serve(ctx)
//
//	recs := engine.GetRecommendations(ctx, userID, 10)
//
// # Thread Safety
//
// The engine is safe for concurrent use. At most one training cycle is
// queued or running at any time, and published snapshots are never mutated.
package recommend
