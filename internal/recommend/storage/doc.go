// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

// Package storage persists published model snapshots so a restarted server
// serves the last model while a fresh one trains.
//
// # Overview
//
// The store provides:
//   - Gob serialization of scorer weights, segments and embeddings
//   - Gzip compression of the serialized state
//   - SHA-256 checksums verified on load
//   - Version tracking with a "latest" pointer
//   - Retention of the N most recently saved versions
//
// # Key Layout
//
// Snapshots live in BadgerDB under zero-padded version keys so prefix
// iteration returns them in version order:
//
//	snapshot:data:00000000000000000003   gob(storedSnapshot)
//	snapshot:meta:00000000000000000003   json(Metadata)
//	snapshot:latest                      "3"
//
// # Usage
//
//	store, err := storage.Open(storage.Config{Path: "/data/models", Keep: 3})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	engine.SetSnapshotStore(store)
//
// The training coordinator calls Save after each publish and LoadLatest
// once at startup. LoadLatest rebuilds the scorer through the engine's
// ScorerFactory and rejects data whose checksum or weight shapes do not match.
//
// # Data Integrity
//
// Load decompresses the state, recomputes its SHA-256 and compares it to
// the stored checksum before decoding. A mismatch returns ErrChecksumMismatch.
package storage
