// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package storage

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/comercio-recommender/internal/recommend"
	"github.com/tomtom215/comercio-recommender/internal/recommend/algorithms"
)

func setupTestStore(t *testing.T, keep int) *Store {
	t.Helper()
	store, err := Open(Config{InMemory: true, Keep: keep})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	saved := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		saved = saved.Add(time.Second)
		return saved
	}
	return store
}

func scorerFactory() recommend.ScorerFactory {
	return algorithms.NewScorerFactory(algorithms.DefaultNeuralConfig(), 42)
}

func testSnapshot(t *testing.T, version int64) *recommend.ModelSnapshot {
	t.Helper()
	scorer := algorithms.NewNeuralScorer(algorithms.DefaultNeuralConfig(), rand.New(rand.NewSource(version)))
	return &recommend.ModelSnapshot{
		ID:        "snap-" + time.Unix(version, 0).UTC().Format("150405"),
		Version:   version,
		TrainedAt: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
		Scorer:    scorer,
		Segments:  map[int64]recommend.Segment{1: 0, 2: 2},
		Clusters:  3,
		UserEmbeddings: map[int64]recommend.Embedding{
			1: recommend.EmbedUserVector(recommend.FeatureVector{0.1, 0.2, 0, 0.5}),
		},
		ProductEmbeddings: map[int64]recommend.Embedding{
			10: recommend.EmbedProductVector(recommend.FeatureVector{0.3, 0.4, 0.1}),
		},
		Losses:  []float64{0.4, 0.2, 0.1},
		Samples: 120,
	}
}

func TestStore_SaveAndLoadLatest(t *testing.T) {
	store := setupTestStore(t, 0)
	ctx := context.Background()

	if snap, err := store.LoadLatest(ctx, scorerFactory()); err != nil || snap != nil {
		t.Fatalf("empty store LoadLatest() = %v, %v; want nil, nil", snap, err)
	}

	original := testSnapshot(t, 1)
	if err := store.Save(ctx, original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.LoadLatest(ctx, scorerFactory())
	if err != nil {
		t.Fatalf("LoadLatest() error = %v", err)
	}
	if loaded.ID != original.ID || loaded.Version != 1 || !loaded.TrainedAt.Equal(original.TrainedAt) {
		t.Errorf("metadata = %s v%d %v", loaded.ID, loaded.Version, loaded.TrainedAt)
	}
	if loaded.Samples != 120 || loaded.Clusters != 3 || loaded.FinalLoss() != 0.1 {
		t.Errorf("samples=%d clusters=%d loss=%f", loaded.Samples, loaded.Clusters, loaded.FinalLoss())
	}
	if seg, ok := loaded.Segment(2); !ok || seg != 2 {
		t.Errorf("Segment(2) = %d, %v", seg, ok)
	}
	if _, ok := loaded.UserEmbedding(1); !ok {
		t.Error("user embedding not restored")
	}

	input, err := recommend.CombineEmbeddings(loaded.UserEmbeddings[1], loaded.ProductEmbeddings[10])
	if err != nil {
		t.Fatalf("CombineEmbeddings() error = %v", err)
	}
	want, _ := original.Scorer.Predict(input)
	got, _ := loaded.Scorer.Predict(input)
	if got != want {
		t.Errorf("restored prediction = %f, want %f", got, want)
	}
}

func TestStore_LatestTracksNewestSave(t *testing.T) {
	store := setupTestStore(t, 0)
	ctx := context.Background()

	for v := int64(1); v <= 3; v++ {
		if err := store.Save(ctx, testSnapshot(t, v)); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	version, ok, err := store.LatestVersion()
	if err != nil || !ok || version != 3 {
		t.Errorf("LatestVersion() = %d, %v, %v; want 3", version, ok, err)
	}

	old, err := store.Load(ctx, 2, scorerFactory())
	if err != nil || old.Version != 2 {
		t.Errorf("Load(2) = %v, %v", old, err)
	}

	metas, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 3 || metas[0].Version != 3 || metas[2].Version != 1 {
		t.Errorf("List() = %+v", metas)
	}
	if metas[0].Checksum == "" || metas[0].SizeBytes == 0 {
		t.Error("metadata missing checksum or size")
	}
}

func TestStore_Retention(t *testing.T) {
	store := setupTestStore(t, 2)
	ctx := context.Background()

	for v := int64(1); v <= 4; v++ {
		if err := store.Save(ctx, testSnapshot(t, v)); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	metas, _ := store.List(ctx)
	if len(metas) != 2 || metas[0].Version != 4 || metas[1].Version != 3 {
		t.Errorf("retained = %+v, want versions 4 and 3", metas)
	}
	if _, err := store.Load(ctx, 1, scorerFactory()); !errors.Is(err, badger.ErrKeyNotFound) {
		t.Errorf("Load(pruned) error = %v, want ErrKeyNotFound", err)
	}
}

func TestStore_RetentionKeepsLowerVersionSavedLast(t *testing.T) {
	store := setupTestStore(t, 2)
	ctx := context.Background()

	for _, v := range []int64{5, 6, 7, 1} {
		if err := store.Save(ctx, testSnapshot(t, v)); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	snap, err := store.LoadLatest(ctx, scorerFactory())
	if err != nil || snap == nil {
		t.Fatalf("LoadLatest() = %v, %v; want version 1", snap, err)
	}
	if snap.Version != 1 {
		t.Errorf("LoadLatest().Version = %d, want 1", snap.Version)
	}

	metas, _ := store.List(ctx)
	if len(metas) != 2 || metas[0].Version != 1 || metas[1].Version != 7 {
		t.Errorf("retained = %+v, want versions 1 and 7", metas)
	}
}

func TestStore_ChecksumMismatch(t *testing.T) {
	store := setupTestStore(t, 0)
	ctx := context.Background()
	if err := store.Save(ctx, testSnapshot(t, 1)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Rewrite the record with a wrong checksum.
	err := store.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(dataKey(1))
		if err != nil {
			return err
		}
		var rec storedSnapshot
		if err := item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&rec)
		}); err != nil {
			return err
		}
		rec.Metadata.Checksum = "deadbeef"
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
			return err
		}
		return txn.Set(dataKey(1), buf.Bytes())
	})
	if err != nil {
		t.Fatalf("tamper: %v", err)
	}

	if _, err := store.LoadLatest(ctx, scorerFactory()); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("LoadLatest() error = %v, want ErrChecksumMismatch", err)
	}
}

func TestStore_ShapeMismatchOnRestore(t *testing.T) {
	store := setupTestStore(t, 0)
	ctx := context.Background()
	if err := store.Save(ctx, testSnapshot(t, 1)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	wider := algorithms.DefaultNeuralConfig()
	wider.HiddenSize = 12
	_, err := store.LoadLatest(ctx, algorithms.NewScorerFactory(wider, 1))
	if !errors.Is(err, recommend.ErrShapeMismatch) {
		t.Errorf("LoadLatest() error = %v, want ErrShapeMismatch", err)
	}
}

func TestStore_SaveWithoutScorer(t *testing.T) {
	store := setupTestStore(t, 0)
	if err := store.Save(context.Background(), &recommend.ModelSnapshot{Version: 1}); err == nil {
		t.Error("Save() without scorer should fail")
	}
}

func TestStore_NewStoreDoesNotOwnDB(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("badger.Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewStore(db, 0)
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if db.IsClosed() {
		t.Error("Close() closed a database the store does not own")
	}
}
