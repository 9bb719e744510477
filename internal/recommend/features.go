// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
)

// Normalization domains for raw attributes. Values outside clamp to the edge.
const (
	maxOrders       = 50.0
	maxOrderAmount  = 2000.0
	maxCartItems    = 20.0
	maxDaysSinceBuy = 365.0
	maxPrice        = 2000.0
	maxQuantity     = 100.0

	// jitterScale bounds the per-product diversity component.
	jitterScale = 0.1
)

// FeatureStore builds normalized user and product vectors from the data provider.
type FeatureStore struct {
	source DataProvider
}

// NewFeatureStore creates a feature store reading from source.
func NewFeatureStore(source DataProvider) *FeatureStore {
	return &FeatureStore{source: source}
}

// UserFeatures returns the user's 8-component vector. The boolean is false
// when the user has no rows; the caller then treats the user as cold-start.
func (s *FeatureStore) UserFeatures(ctx context.Context, userID int64) (FeatureVector, bool, error) {
	agg, err := s.source.FetchUserAggregates(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: user aggregates %d: %w", ErrDataUnavailable, userID, err)
	}
	if agg == nil {
		return nil, false, nil
	}
	if err := agg.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	return UserVector(agg), true, nil
}

// ProductFeatures returns the product's 6-component vector.
func (s *FeatureStore) ProductFeatures(ctx context.Context, productID int64) (FeatureVector, bool, error) {
	row, err := s.source.FetchProductRow(ctx, productID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: product row %d: %w", ErrDataUnavailable, productID, err)
	}
	if row == nil {
		return nil, false, nil
	}
	if err := row.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	return ProductVector(row), true, nil
}

// UserVector normalizes aggregates into an 8-component vector in [0, 1]:
//
//	[0] orders  [1] average spend  [2] cart items  [3] days since last order
//	[4] producer flag  [5] tanh(orders*spend)  [6] sigmoid(cart-recency)
//	[7] cos(orders+producer) shifted into [0, 1]
func UserVector(agg *UserAggregates) FeatureVector {
	v := make(FeatureVector, UserFeatureSize)
	v[0] = Normalize(float64(agg.OrderCount), 0, maxOrders)
	v[1] = Normalize(agg.AvgOrderAmount, 0, maxOrderAmount)
	v[2] = Normalize(float64(agg.CartItemCount), 0, maxCartItems)
	v[3] = Normalize(agg.DaysSinceLastOrder, 0, maxDaysSinceBuy)
	if agg.Role == RoleProducer {
		v[4] = 1
	}
	v[5] = Clamp01(math.Tanh(v[0] * v[1]))
	v[6] = Clamp01(Sigmoid(v[2] - v[3]))
	v[7] = Clamp01((math.Cos(v[0]+v[4]) + 1) / 2)
	return v
}

// ProductVector normalizes a catalog row into a 6-component vector in [0, 1]:
//
//	[0] price  [1] quantity  [2] log price  [3] sqrt quantity
//	[4] price cycle  [5] id-derived diversity jitter
func ProductVector(row *ProductRow) FeatureVector {
	v := make(FeatureVector, ProductFeatureSize)
	v[0] = Normalize(row.Price, 0, maxPrice)
	v[1] = Normalize(float64(row.Quantity), 0, maxQuantity)
	v[2] = Clamp01(math.Log(row.Price+1) / 10)
	v[3] = Clamp01(math.Sqrt(float64(row.Quantity)) / 10)
	v[4] = Clamp01((math.Sin(row.Price/100) + 1) / 2)
	v[5] = productJitter(row.ProductID)
	return v
}

// productJitter maps a product id to a stable value in [0, jitterScale).
func productJitter(productID int64) float64 {
	h := fnv.New64a()
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(uint64(productID) >> (8 * i))
	}
	_, _ = h.Write(b[:])
	return float64(h.Sum64()%1_000_000) / 1_000_000 * jitterScale
}

// ZeroUserVector is the cold-start user vector.
func ZeroUserVector() FeatureVector {
	return make(FeatureVector, UserFeatureSize)
}

// ZeroProductVector is the cold-start product vector.
func ZeroProductVector() FeatureVector {
	return make(FeatureVector, ProductFeatureSize)
}
