// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"math"

	"github.com/tomtom215/comercio-recommender/internal/cache"
	"github.com/tomtom215/comercio-recommender/internal/metrics"
)

// EmbeddingGenerator projects feature vectors into fixed-size embeddings and
// caches request-time results by entity id. Returned embeddings are shared
// and must not be modified.
type EmbeddingGenerator struct {
	users    *cache.LRU[int64, Embedding]
	products *cache.LRU[int64, Embedding]
}

// NewEmbeddingGenerator creates a generator. A disabled cache config yields a
// generator that computes every embedding on demand.
func NewEmbeddingGenerator(cfg CacheConfig) *EmbeddingGenerator {
	g := &EmbeddingGenerator{}
	if cfg.Enabled {
		g.users = cache.NewLRU[int64, Embedding](cfg.MaxEntries, cfg.TTL)
		g.products = cache.NewLRU[int64, Embedding](cfg.MaxEntries, cfg.TTL)
	}
	return g
}

// EmbedUserVector projects a user vector into UserEmbeddingSize dimensions.
// Components present in fv map through tanh(2x); padding components repeat
// sin(f[0] + f[1]) (f[0] twice for single-component input).
func EmbedUserVector(fv FeatureVector) Embedding {
	e := make(Embedding, UserEmbeddingSize)
	if len(fv) == 0 {
		return e
	}
	n := min(len(fv), UserEmbeddingSize)
	for i := 0; i < n; i++ {
		e[i] = math.Tanh(2 * fv[i])
	}
	if len(fv) < UserEmbeddingSize {
		pad := math.Sin(fv[0] + fv[min(1, len(fv)-1)])
		for i := len(fv); i < UserEmbeddingSize; i++ {
			e[i] = pad
		}
	}
	return e
}

// EmbedProductVector projects a product vector into ProductEmbeddingSize
// dimensions through the logistic function, zero-filling missing components.
func EmbedProductVector(fv FeatureVector) Embedding {
	e := make(Embedding, ProductEmbeddingSize)
	n := min(len(fv), ProductEmbeddingSize)
	for i := 0; i < n; i++ {
		e[i] = Sigmoid(fv[i])
	}
	return e
}

// EmbedUser projects fv and caches the result under userID.
func (g *EmbeddingGenerator) EmbedUser(userID int64, fv FeatureVector) Embedding {
	e := EmbedUserVector(fv)
	if g.users != nil {
		g.users.Add(userID, e)
	}
	return e
}

// EmbedProduct projects fv and caches the result under productID.
func (g *EmbeddingGenerator) EmbedProduct(productID int64, fv FeatureVector) Embedding {
	e := EmbedProductVector(fv)
	if g.products != nil {
		g.products.Add(productID, e)
	}
	return e
}

// CachedUser returns the cached user embedding, if any.
func (g *EmbeddingGenerator) CachedUser(userID int64) (Embedding, bool) {
	if g.users == nil {
		return nil, false
	}
	e, ok := g.users.Get(userID)
	metrics.RecordEmbeddingLookup("user", ok)
	return e, ok
}

// CachedProduct returns the cached product embedding, if any.
func (g *EmbeddingGenerator) CachedProduct(productID int64) (Embedding, bool) {
	if g.products == nil {
		return nil, false
	}
	e, ok := g.products.Get(productID)
	metrics.RecordEmbeddingLookup("product", ok)
	return e, ok
}

// HasUser reports whether an embedding is cached for userID without
// counting a lookup.
func (g *EmbeddingGenerator) HasUser(userID int64) bool {
	return g.users != nil && g.users.Contains(userID)
}

// Invalidate drops every cached embedding. Called after each publish.
func (g *EmbeddingGenerator) Invalidate() {
	if g.users != nil {
		g.users.Clear()
	}
	if g.products != nil {
		g.products.Clear()
	}
}
