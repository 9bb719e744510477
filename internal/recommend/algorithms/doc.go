// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

// Package algorithms implements the model components used by the
// recommendation engine.
//
//   - NeuralScorer: a two-layer tanh network predicting user/product
//     affinity, implementing recommend.Scorer
//   - KMeans: Lloyd's k-means with random restarts for user segmentation,
//     implementing recommend.Clusterer
//
// # Determinism
//
// Both components draw randomness only from the *rand.Rand they are given.
// With the same seed and input they produce identical weights and
// partitions. NewScorerFactory seeds each new scorer identically.
//
// # Thread Safety
//
// Training takes an exclusive lock and prediction a shared one, so a
// published NeuralScorer may be queried concurrently. KMeans serializes
// calls to Cluster because they share the random source.
//
// # Usage
//
//	netCfg := algorithms.NeuralConfigFrom(cfg.Network)
//	newScorer := algorithms.NewScorerFactory(netCfg, cfg.Seed)
//	clusterer := algorithms.NewKMeans(algorithms.KMeansConfigFrom(cfg.Clustering),
//	    rand.New(rand.NewSource(cfg.Seed)))
//
//	engine, err := recommend.NewEngine(cfg, provider, newScorer, clusterer, logger)
package algorithms
