// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import "context"

// DataProvider is the read contract the engine needs from the surrounding
// system. Implementations return (nil, nil) for absent users and products.
type DataProvider interface {
	// FetchUserAggregates returns order and cart aggregates for a user.
	FetchUserAggregates(ctx context.Context, userID int64) (*UserAggregates, error)

	// FetchProductRow returns catalog attributes for a product.
	FetchProductRow(ctx context.Context, productID int64) (*ProductRow, error)

	// FetchCandidateProducts returns in-stock products from approved producers
	// that the user has not purchased, in catalog order.
	FetchCandidateProducts(ctx context.Context, userID int64) ([]CandidateProduct, error)

	// FetchTrainingSnapshot returns at most limit joined (user, product) rows.
	FetchTrainingSnapshot(ctx context.Context, limit int) ([]TrainingRow, error)

	// RecordPopularityCounts returns products ordered by transaction count, descending.
	RecordPopularityCounts(ctx context.Context, limit int) ([]PopularProduct, error)
}

// InteractionStore persists tracked interactions and summarizes them per user.
type InteractionStore interface {
	RecordInteraction(ctx context.Context, in *Interaction) error
	FetchInteractionStats(ctx context.Context, userID int64) (*InteractionStats, error)
}

// InteractionPublisher hands an interaction off for asynchronous persistence.
type InteractionPublisher interface {
	PublishInteraction(ctx context.Context, in *Interaction) error
}

// Scorer is a trained affinity model. A published Scorer is never mutated,
// so Predict must be safe for concurrent use.
type Scorer interface {
	// Initialize draws fresh weights.
	Initialize()

	// Train runs epochs of per-sample gradient descent and returns the mean
	// squared error of each epoch.
	Train(inputs, targets [][]float64, epochs int) ([]float64, error)

	// Predict returns an affinity in [0, 1].
	Predict(input []float64) (float64, error)

	// Parameters returns a deep copy of the weights.
	Parameters() NetworkParameters

	// SetParameters replaces the weights, rejecting mismatched shapes.
	SetParameters(p NetworkParameters) error

	// InputSize is the required input length.
	InputSize() int
}

// ScorerFactory builds an untrained scorer for a new training cycle.
type ScorerFactory func() Scorer

// Clusterer partitions users into segments.
type Clusterer interface {
	Cluster(vectors [][]float64, ids []int64, k int) (map[Segment][]int64, error)
}

// NetworkParameters holds the weights of a two-layer network.
// W1 is input x hidden, W2 is hidden x output.
type NetworkParameters struct {
	W1 [][]float64
	B1 []float64
	W2 [][]float64
	B2 []float64
}

// Clone returns a deep copy.
func (p NetworkParameters) Clone() NetworkParameters {
	return NetworkParameters{
		W1: cloneMatrix(p.W1),
		B1: append([]float64(nil), p.B1...),
		W2: cloneMatrix(p.W2),
		B2: append([]float64(nil), p.B2...),
	}
}

// Empty reports whether no weights are set.
func (p NetworkParameters) Empty() bool {
	return len(p.W1) == 0 || len(p.W2) == 0
}

func cloneMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
