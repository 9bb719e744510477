// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package algorithms

import (
	"math/rand"

	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

var (
	_ recommend.Scorer    = (*NeuralScorer)(nil)
	_ recommend.Clusterer = (*KMeans)(nil)
)

// NewScorerFactory returns a factory producing scorers seeded identically,
// so every training cycle over the same data yields the same weights.
func NewScorerFactory(cfg NeuralConfig, seed int64) recommend.ScorerFactory {
	if seed == 0 {
		seed = defaultSeed
	}
	return func() recommend.Scorer {
		return NewNeuralScorer(cfg, rand.New(rand.NewSource(seed))) //nolint:gosec // deterministic model init
	}
}

// NeuralConfigFrom maps engine network settings onto the scorer config.
func NeuralConfigFrom(cfg recommend.NetworkConfig) NeuralConfig {
	c := DefaultNeuralConfig()
	c.HiddenSize = cfg.HiddenSize
	c.LearningRate = cfg.LearningRate
	return c
}

// KMeansConfigFrom maps engine clustering settings onto the k-means config.
func KMeansConfigFrom(cfg recommend.ClusteringConfig) KMeansConfig {
	return KMeansConfig{
		MaxIterations: cfg.MaxIterations,
		Restarts:      cfg.Restarts,
	}
}
