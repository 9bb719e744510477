// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/comercio-recommender/internal/metrics"
)

// SnapshotStore persists published snapshots so a restart can serve the last
// model while a fresh one trains.
type SnapshotStore interface {
	Save(ctx context.Context, snap *ModelSnapshot) error
	LoadLatest(ctx context.Context, newScorer ScorerFactory) (*ModelSnapshot, error)
	LatestVersion() (int64, bool, error)
}

// TrainingCoordinator owns the model lifecycle. Retrain requests go through a
// single-slot queue consumed by one worker, so at most one cycle is queued or
// running at any time.
type TrainingCoordinator struct {
	config     *Config
	source     DataProvider
	newScorer  ScorerFactory
	clusterer  Clusterer
	embeddings *EmbeddingGenerator
	handle     *ModelHandle
	store      SnapshotStore
	logger     zerolog.Logger
	now        func() time.Time

	requests chan string

	// versionFloor is the highest version known to the store. New snapshots
	// are numbered above it even when the restore failed.
	versionFloor int64

	mu        sync.Mutex
	pending   bool
	failed    bool
	retry     *rate.Limiter
	cycles    int64
	failures  int64
	lastError string

	// onCycle is a test hook invoked after each cycle.
	onCycle func(err error)
}

// NewTrainingCoordinator creates a coordinator. Serve must be running for
// triggered cycles to execute.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainingCoordinator(
	cfg *Config,
	source DataProvider,
	newScorer ScorerFactory,
	clusterer Clusterer,
	embeddings *EmbeddingGenerator,
	handle *ModelHandle,
	logger zerolog.Logger,
) *TrainingCoordinator {
	limit := rate.Inf
	if cfg.Training.RetryBackoff > 0 {
		limit = rate.Every(cfg.Training.RetryBackoff)
	}
	return &TrainingCoordinator{
		config:     cfg,
		source:     source,
		newScorer:  newScorer,
		clusterer:  clusterer,
		embeddings: embeddings,
		handle:     handle,
		logger:     logger.With().Str("component", "training").Logger(),
		now:        time.Now,
		requests:   make(chan string, 1),
		retry:      rate.NewLimiter(limit, 1),
	}
}

// SetSnapshotStore enables snapshot persistence and warm start.
func (c *TrainingCoordinator) SetSnapshotStore(store SnapshotStore) {
	c.store = store
}

// Serve runs the training worker until ctx is cancelled. A cycle that has
// started runs to completion even if ctx is cancelled meanwhile.
func (c *TrainingCoordinator) Serve(ctx context.Context) error {
	c.restore(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reason := <-c.requests:
			c.runCycle(context.WithoutCancel(ctx), reason)
		}
	}
}

// String returns the service name for logging.
func (c *TrainingCoordinator) String() string {
	return "training-worker"
}

// Trigger queues a training cycle. It returns false, doing nothing, when a
// cycle is already queued or running.
func (c *TrainingCoordinator) Trigger(reason string) bool {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return false
	}
	c.pending = true
	c.mu.Unlock()

	c.requests <- reason
	c.logger.Debug().Str("reason", reason).Msg("training cycle queued")
	return true
}

// TriggerIfStale queues a cycle when no model exists or the current one has
// outlived the retrain interval.
func (c *TrainingCoordinator) TriggerIfStale() bool {
	switch c.State() {
	case StateUntrained:
		return c.Trigger("untrained")
	case StateStale:
		return c.Trigger("stale")
	default:
		return false
	}
}

// EnsureReady is called on the request path. It returns the current snapshot
// (possibly nil or stale) and queues a cycle when one is needed. After a
// failed cycle, request-driven retries are throttled by the retry backoff.
func (c *TrainingCoordinator) EnsureReady() *ModelSnapshot {
	snap := c.handle.Load()
	if snap != nil && !c.isStale(snap) {
		return snap
	}

	c.mu.Lock()
	throttled := c.failed && !c.retry.Allow()
	c.mu.Unlock()
	if throttled {
		return snap
	}

	if snap == nil {
		c.Trigger("first request")
	} else {
		c.Trigger("stale")
	}
	return snap
}

// State derives the lifecycle state from the published snapshot and the
// worker status.
func (c *TrainingCoordinator) State() ModelState {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()
	if pending {
		return StateTraining
	}

	snap := c.handle.Load()
	switch {
	case snap == nil:
		return StateUntrained
	case c.isStale(snap):
		return StateStale
	default:
		return StateTrained
	}
}

// Status reports the coordinator's view of the model.
func (c *TrainingCoordinator) Status() TrainingStatus {
	c.mu.Lock()
	st := TrainingStatus{
		InFlight:  c.pending,
		Cycles:    c.cycles,
		Failures:  c.failures,
		LastError: c.lastError,
	}
	c.mu.Unlock()

	st.State = c.State()
	if snap := c.handle.Load(); snap != nil {
		st.Version = snap.Version
		st.SnapshotID = snap.ID
		st.LastTrainedAt = snap.TrainedAt
		st.LastLoss = snap.FinalLoss()
		st.Samples = snap.Samples
		st.Clusters = snap.Clusters
	}
	return st
}

func (c *TrainingCoordinator) isStale(snap *ModelSnapshot) bool {
	if snap.Restored {
		return true
	}
	return c.now().Sub(snap.TrainedAt) >= c.config.Training.Interval
}

// runCycle trains, publishes on success and records the outcome. Errors are
// logged and leave the published snapshot untouched.
func (c *TrainingCoordinator) runCycle(ctx context.Context, reason string) {
	start := c.now()
	logger := c.logger.With().Str("reason", reason).Logger()
	logger.Info().Msg("training cycle started")
	metrics.ModelState.Set(float64(StateTraining))

	snap, err := c.trainSafely(ctx)
	duration := c.now().Sub(start)

	if err == nil {
		c.publish(ctx, snap)
		logger.Info().
			Int64("version", snap.Version).
			Int("samples", snap.Samples).
			Int("clusters", snap.Clusters).
			Float64("final_loss", snap.FinalLoss()).
			Dur("duration", duration).
			Msg("training cycle completed")
		metrics.RecordTrainingCycle(duration, snap.Samples, snap.FinalLoss(), nil)
	} else {
		logger.Error().Err(err).Dur("duration", duration).Msg("training cycle failed")
		metrics.RecordTrainingCycle(duration, 0, 0, err)
	}

	c.mu.Lock()
	c.cycles++
	c.pending = false
	c.failed = err != nil
	if err != nil {
		c.failures++
		c.lastError = err.Error()
		// Spend the token so the next request-driven retry waits a full backoff.
		c.retry.Allow()
	} else {
		c.lastError = ""
	}
	hook := c.onCycle
	c.mu.Unlock()

	metrics.ModelState.Set(float64(c.State()))
	if hook != nil {
		hook(err)
	}
}

func (c *TrainingCoordinator) trainSafely(ctx context.Context) (snap *ModelSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TrainingError{Stage: "panic", Err: fmt.Errorf("%v", r)}
		}
	}()
	return c.train(ctx)
}

func (c *TrainingCoordinator) train(ctx context.Context) (*ModelSnapshot, error) {
	rows, err := c.source.FetchTrainingSnapshot(ctx, c.config.Training.SampleCap)
	if err != nil {
		return nil, &TrainingError{Stage: "fetch", Err: err}
	}
	dataset, dropped := NewTrainingDataset(rows)
	if dropped > 0 {
		c.logger.Warn().Int("dropped", dropped).Msg("invalid training rows skipped")
	}
	if dataset.Empty() {
		return nil, &TrainingError{Stage: "fetch", Err: ErrInsufficientData}
	}

	users := make(map[int64]Embedding, len(dataset.userIDs))
	for _, uid := range dataset.UserIDs() {
		if fv, ok := dataset.UserFeatures(uid); ok {
			users[uid] = EmbedUserVector(fv)
		}
	}
	products := make(map[int64]Embedding, len(dataset.productIDs))
	for _, pid := range dataset.ProductIDs() {
		if fv, ok := dataset.ProductFeatures(pid); ok {
			products[pid] = EmbedProductVector(fv)
		}
	}

	inputs, targets, err := dataset.Samples(users, products)
	if err != nil {
		return nil, &TrainingError{Stage: "samples", Err: err}
	}

	scorer := c.newScorer()
	if scorer.InputSize() != ScorerInputSize {
		return nil, &TrainingError{Stage: "network", Err: ShapeError("scorer input", scorer.InputSize(), ScorerInputSize)}
	}
	scorer.Initialize()
	losses, err := scorer.Train(inputs, targets, c.config.Network.Epochs)
	if err != nil {
		return nil, &TrainingError{Stage: "network", Err: err}
	}

	vectors, ids := dataset.UserMatrix()
	k := ClusterCount(len(ids), c.config.Clustering)
	groups, err := c.clusterer.Cluster(vectors, ids, k)
	if err != nil {
		return nil, &TrainingError{Stage: "clustering", Err: err}
	}
	segments := make(map[int64]Segment, len(ids))
	for seg, members := range groups {
		for _, uid := range members {
			segments[uid] = seg
		}
	}

	return &ModelSnapshot{
		ID:                uuid.NewString(),
		Version:           max(c.handle.Version(), c.versionFloor) + 1,
		TrainedAt:         c.now(),
		Scorer:            scorer,
		Segments:          segments,
		Clusters:          len(groups),
		UserEmbeddings:    users,
		ProductEmbeddings: products,
		Losses:            losses,
		Samples:           dataset.Len(),
	}, nil
}

func (c *TrainingCoordinator) publish(ctx context.Context, snap *ModelSnapshot) {
	c.handle.Publish(snap)
	c.embeddings.Invalidate()
	metrics.ModelVersion.Set(float64(snap.Version))

	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, snap); err != nil {
		c.logger.Warn().Err(err).Int64("version", snap.Version).Msg("failed to persist model snapshot")
	}
}

// restore publishes the last persisted snapshot, if any, before the first
// cycle. The restored snapshot is served as stale until a cycle replaces it.
func (c *TrainingCoordinator) restore(ctx context.Context) {
	if c.store == nil || c.handle.Load() != nil {
		return
	}
	if v, ok, err := c.store.LatestVersion(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to read persisted model version")
	} else if ok {
		c.versionFloor = max(c.versionFloor, v)
	}

	snap, err := c.store.LoadLatest(ctx, c.newScorer)
	if err != nil {
		c.logger.Warn().Err(err).Int64("version", c.versionFloor).Msg("failed to load persisted model snapshot")
		return
	}
	if snap == nil {
		return
	}
	restored := *snap
	restored.Restored = true
	c.versionFloor = max(c.versionFloor, restored.Version)
	c.handle.Publish(&restored)
	c.embeddings.Invalidate()
	metrics.ModelVersion.Set(float64(restored.Version))
	c.logger.Info().
		Int64("version", restored.Version).
		Time("trained_at", restored.TrainedAt).
		Msg("restored persisted model snapshot")
}

// ClusterCount returns k = max(1, min(MaxClusters, users/UsersPerCluster)).
func ClusterCount(users int, cfg ClusteringConfig) int {
	per := cfg.UsersPerCluster
	if per < 1 {
		per = 1
	}
	return max(1, min(cfg.MaxClusters, users/per))
}
