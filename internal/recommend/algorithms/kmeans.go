// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package algorithms

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// KMeansConfig contains configuration for k-means clustering.
type KMeansConfig struct {
	// MaxIterations bounds the assign/update rounds of one run.
	// Default: 50.
	MaxIterations int

	// Restarts is the number of independent runs. The run with the lowest
	// within-cluster squared error is kept.
	// Default: 25.
	Restarts int
}

// DefaultKMeansConfig returns default clustering configuration.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		MaxIterations: 50,
		Restarts:      25,
	}
}

// KMeans partitions vectors with Lloyd's algorithm using Euclidean distance.
// Each run seeds its centroids with k distinct input points.
type KMeans struct {
	config KMeansConfig

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewKMeans creates a clusterer. A nil rng uses a fixed seed.
func NewKMeans(cfg KMeansConfig, rng *rand.Rand) *KMeans {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 50
	}
	if cfg.Restarts <= 0 {
		cfg.Restarts = 25
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(defaultSeed)) //nolint:gosec // centroid seeding does not need crypto randomness
	}
	return &KMeans{config: cfg, rng: rng}
}

// Cluster groups ids by their vectors into k segments. k is reduced to the
// number of vectors. The result has exactly k keys, 0..k-1; a segment whose
// centroid attracted no points maps to an empty slice. Members keep input order.
func (km *KMeans) Cluster(vectors [][]float64, ids []int64, k int) (map[recommend.Segment][]int64, error) {
	if len(vectors) != len(ids) {
		return nil, recommend.ShapeError("ids", len(ids), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, recommend.ErrInsufficientData
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, recommend.ShapeError(fmt.Sprintf("vector %d", i), len(v), dim)
		}
	}
	k = max(1, min(k, len(vectors)))

	km.mu.Lock()
	defer km.mu.Unlock()

	var (
		best    []int
		bestSSE = math.Inf(1)
	)
	for r := 0; r < km.config.Restarts; r++ {
		assign, sse := km.run(vectors, k, dim)
		if sse < bestSSE {
			best, bestSSE = assign, sse
		}
	}

	out := make(map[recommend.Segment][]int64, k)
	for c := 0; c < k; c++ {
		out[recommend.Segment(c)] = []int64{}
	}
	for i, c := range best {
		seg := recommend.Segment(c)
		out[seg] = append(out[seg], ids[i])
	}
	return out, nil
}

// run performs one k-means pass and returns the assignment and its
// within-cluster squared error. Caller holds km.mu.
func (km *KMeans) run(vectors [][]float64, k, dim int) ([]int, float64) {
	centroids := make([][]float64, k)
	for c, idx := range km.rng.Perm(len(vectors))[:k] {
		centroids[c] = append([]float64(nil), vectors[idx]...)
	}

	assign := make([]int, len(vectors))
	for i := range assign {
		assign[i] = -1
	}
	counts := make([]int, k)

	for iter := 0; iter < km.config.MaxIterations; iter++ {
		changed := false
		for i, v := range vectors {
			c := nearest(centroids, v)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		for c := range centroids {
			for d := range centroids[c] {
				centroids[c][d] = 0
			}
			counts[c] = 0
		}
		for i, v := range vectors {
			c := assign[i]
			counts[c]++
			for d := 0; d < dim; d++ {
				centroids[c][d] += v[d]
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] /= float64(counts[c])
			}
		}
	}

	var sse float64
	for i, v := range vectors {
		sse += squaredDistance(v, centroids[assign[i]])
	}
	return assign, sse
}

// nearest returns the index of the closest centroid. Ties go to the lower index.
func nearest(centroids [][]float64, v []float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(v, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
