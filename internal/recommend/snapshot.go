// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"sync/atomic"
	"time"
)

// ModelSnapshot is a fully built model. Nothing in it is modified after it
// is published, so readers share it without locking.
type ModelSnapshot struct {
	// ID uniquely identifies the snapshot.
	ID string

	// Version increases by one per published snapshot.
	Version int64

	// TrainedAt is when the training cycle completed.
	TrainedAt time.Time

	// Scorer is the trained network.
	Scorer Scorer

	// Segments maps clustered user ids to their segment.
	Segments map[int64]Segment

	// Clusters is the k used for segmentation.
	Clusters int

	// UserEmbeddings and ProductEmbeddings hold the embeddings of the
	// entities seen during training.
	UserEmbeddings    map[int64]Embedding
	ProductEmbeddings map[int64]Embedding

	// Losses is the mean squared error per epoch.
	Losses []float64

	// Samples is the number of training rows used.
	Samples int

	// Restored marks a snapshot loaded from persistence rather than trained
	// by this process. It reports as stale until a fresh cycle replaces it.
	Restored bool
}

// Segment returns the clustered segment for userID.
func (s *ModelSnapshot) Segment(userID int64) (Segment, bool) {
	seg, ok := s.Segments[userID]
	return seg, ok
}

// UserEmbedding returns the training-time embedding for userID.
func (s *ModelSnapshot) UserEmbedding(userID int64) (Embedding, bool) {
	e, ok := s.UserEmbeddings[userID]
	return e, ok
}

// ProductEmbedding returns the training-time embedding for productID.
func (s *ModelSnapshot) ProductEmbedding(productID int64) (Embedding, bool) {
	e, ok := s.ProductEmbeddings[productID]
	return e, ok
}

// FinalLoss returns the last epoch's loss, or 0 when none was recorded.
func (s *ModelSnapshot) FinalLoss() float64 {
	if len(s.Losses) == 0 {
		return 0
	}
	return s.Losses[len(s.Losses)-1]
}

// ModelHandle owns the current snapshot. Publish swaps the pointer; Load
// never observes a partially built snapshot.
type ModelHandle struct {
	current atomic.Pointer[ModelSnapshot]
}

// Load returns the current snapshot or nil.
func (h *ModelHandle) Load() *ModelSnapshot {
	return h.current.Load()
}

// Publish makes snap the current snapshot.
func (h *ModelHandle) Publish(snap *ModelSnapshot) {
	h.current.Store(snap)
}

// Version returns the current snapshot version, 0 when none is published.
func (h *ModelHandle) Version() int64 {
	if s := h.current.Load(); s != nil {
		return s.Version
	}
	return 0
}
