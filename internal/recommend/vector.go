// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import "math"

// Clamp01 bounds x to [0, 1]. NaN maps to 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Normalize maps x linearly from [lo, hi] to [0, 1] and clamps.
func Normalize(x, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return Clamp01((x - lo) / (hi - lo))
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// MeanDot returns the dot product over the shared prefix divided by its length.
func MeanDot(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum / float64(n)
}

// RMSDistance returns the root-mean-square difference over the shared prefix.
func RMSDistance(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// CombineEmbeddings builds the scorer input: the user embedding, the product
// embedding, then their mean dot product and RMS distance.
func CombineEmbeddings(user, product Embedding) ([]float64, error) {
	if len(user) != UserEmbeddingSize {
		return nil, ShapeError("user embedding", len(user), UserEmbeddingSize)
	}
	if len(product) != ProductEmbeddingSize {
		return nil, ShapeError("product embedding", len(product), ProductEmbeddingSize)
	}
	out := make([]float64, 0, ScorerInputSize)
	out = append(out, user...)
	out = append(out, product...)
	out = append(out, MeanDot(user, product), RMSDistance(user, product))
	return out, nil
}
