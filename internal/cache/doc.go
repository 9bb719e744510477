// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

/*
Package cache provides a generic, thread-safe LRU cache with optional TTL.

The recommender keeps one cache per entity kind for embeddings, keyed by
user or product ID:

	users := cache.NewLRU[int64, recommend.Embedding](10000, 30*time.Minute)
	users.Add(42, emb)
	if v, ok := users.Get(42); ok {
	    // hit
	}

Entries are evicted when the cache is full (least recently used first) or
lazily on Get once their TTL has passed. A TTL of zero disables expiry.
Stats reports hits, misses, evictions and the current size.

The embedding caches are cleared whenever a new model snapshot is published.
*/
package cache
