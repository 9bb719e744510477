// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// Key layout.
const (
	dataKeyPrefix = "snapshot:data:"
	metaKeyPrefix = "snapshot:meta:"
	latestKey     = "snapshot:latest"
)

// ErrChecksumMismatch is returned when stored snapshot data fails verification.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// Config contains snapshot store settings.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps snapshots in memory only.
	InMemory bool

	// Compression enables Snappy block compression in BadgerDB.
	Compression bool

	// Keep is the number of snapshot versions retained. Zero keeps all.
	Keep int
}

// Metadata describes a stored snapshot.
type Metadata struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`
	Samples   int       `json:"samples"`
	Clusters  int       `json:"clusters"`
	FinalLoss float64   `json:"final_loss"`

	// Checksum is the SHA-256 of the uncompressed snapshot state.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed state size.
	SizeBytes int64 `json:"size_bytes"`
}

// snapshotState is the gob-encoded model state.
type snapshotState struct {
	Parameters        recommend.NetworkParameters
	Segments          map[int64]recommend.Segment
	UserEmbeddings    map[int64]recommend.Embedding
	ProductEmbeddings map[int64]recommend.Embedding
	Losses            []float64
}

// storedSnapshot is the value written under a data key.
type storedSnapshot struct {
	Metadata       Metadata
	CompressedData []byte
}

// Store persists model snapshots in BadgerDB.
type Store struct {
	db    *badger.DB
	keep  int
	owned bool
	now   func() time.Time
}

// Open opens a BadgerDB at cfg.Path (or in memory) and returns a store that
// closes it on Close.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	s := NewStore(db, cfg.Keep)
	s.owned = true
	return s, nil
}

// NewStore wraps an existing database. The caller keeps ownership of db.
func NewStore(db *badger.DB, keep int) *Store {
	return &Store{db: db, keep: keep, now: time.Now}
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Save stores snap and marks it as the latest version, then prunes old
// versions beyond the retention limit.
func (s *Store) Save(ctx context.Context, snap *recommend.ModelSnapshot) error {
	if snap == nil || snap.Scorer == nil {
		return errors.New("snapshot has no scorer")
	}

	state := snapshotState{
		Parameters:        snap.Scorer.Parameters(),
		Segments:          snap.Segments,
		UserEmbeddings:    snap.UserEmbeddings,
		ProductEmbeddings: snap.ProductEmbeddings,
		Losses:            snap.Losses,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	raw := buf.Bytes()
	hash := sha256.Sum256(raw)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta := Metadata{
		ID:        snap.ID,
		Version:   snap.Version,
		TrainedAt: snap.TrainedAt,
		SavedAt:   s.now().UTC(),
		Samples:   snap.Samples,
		Clusters:  snap.Clusters,
		FinalLoss: snap.FinalLoss(),
		Checksum:  hex.EncodeToString(hash[:]),
		SizeBytes: int64(compressed.Len()),
	}

	var record bytes.Buffer
	if err := gob.NewEncoder(&record).Encode(storedSnapshot{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return fmt.Errorf("encode snapshot record: %w", err)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal snapshot metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(dataKey(snap.Version), record.Bytes()); err != nil {
			return fmt.Errorf("set snapshot data: %w", err)
		}
		if err := txn.Set(metaKey(snap.Version), metaJSON); err != nil {
			return fmt.Errorf("set snapshot metadata: %w", err)
		}
		return txn.Set([]byte(latestKey), []byte(strconv.FormatInt(snap.Version, 10)))
	})
	if err != nil {
		return err
	}

	if s.keep > 0 {
		return s.Prune(ctx, s.keep)
	}
	return nil
}

// LoadLatest returns the most recently saved snapshot, or nil when none exists.
func (s *Store) LoadLatest(ctx context.Context, newScorer recommend.ScorerFactory) (*recommend.ModelSnapshot, error) {
	version, ok, err := s.LatestVersion()
	if err != nil || !ok {
		return nil, err
	}
	return s.Load(ctx, version, newScorer)
}

// LatestVersion returns the version marked latest.
func (s *Store) LatestVersion() (int64, bool, error) {
	var version int64
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get latest version: %w", err)
		}
		return item.Value(func(val []byte) error {
			v, err := strconv.ParseInt(string(val), 10, 64)
			if err != nil {
				return fmt.Errorf("parse latest version: %w", err)
			}
			version, found = v, true
			return nil
		})
	})
	return version, found, err
}

// Load restores a specific snapshot version into a scorer built by newScorer.
func (s *Store) Load(_ context.Context, version int64, newScorer recommend.ScorerFactory) (*recommend.ModelSnapshot, error) {
	var record storedSnapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dataKey(version))
		if err != nil {
			return fmt.Errorf("get snapshot %d: %w", version, err)
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&record)
		})
	})
	if err != nil {
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(record.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed snapshot: %w", err)
	}
	hash := sha256.Sum256(raw)
	if sum := hex.EncodeToString(hash[:]); sum != record.Metadata.Checksum {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, record.Metadata.Checksum, sum)
	}

	var state snapshotState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	scorer := newScorer()
	if err := scorer.SetParameters(state.Parameters); err != nil {
		return nil, fmt.Errorf("restore scorer: %w", err)
	}

	meta := record.Metadata
	return &recommend.ModelSnapshot{
		ID:                meta.ID,
		Version:           meta.Version,
		TrainedAt:         meta.TrainedAt,
		Scorer:            scorer,
		Segments:          state.Segments,
		Clusters:          meta.Clusters,
		UserEmbeddings:    state.UserEmbeddings,
		ProductEmbeddings: state.ProductEmbeddings,
		Losses:            state.Losses,
		Samples:           meta.Samples,
	}, nil
}

// List returns metadata for every stored snapshot, most recently saved first.
func (s *Store) List(_ context.Context) ([]Metadata, error) {
	var out []Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(metaKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var m Metadata
				if err := json.Unmarshal(val, &m); err != nil {
					return err
				}
				out = append(out, m)
				return nil
			})
			if err != nil {
				return fmt.Errorf("read snapshot metadata: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].SavedAt.After(out[j].SavedAt)
		}
		return out[i].Version > out[j].Version
	})
	return out, nil
}

// Prune deletes all but the keep most recently saved versions. The version
// marked latest is always retained.
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep < 1 {
		keep = 1
	}
	metas, err := s.List(ctx)
	if err != nil {
		return err
	}
	latest, hasLatest, err := s.LatestVersion()
	if err != nil {
		return err
	}
	if hasLatest {
		for i, m := range metas {
			if m.Version == latest {
				copy(metas[1:i+1], metas[:i])
				metas[0] = m
				break
			}
		}
	}
	if len(metas) <= keep {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, m := range metas[keep:] {
			if err := txn.Delete(dataKey(m.Version)); err != nil {
				return fmt.Errorf("delete snapshot %d: %w", m.Version, err)
			}
			if err := txn.Delete(metaKey(m.Version)); err != nil {
				return fmt.Errorf("delete snapshot metadata %d: %w", m.Version, err)
			}
		}
		return nil
	})
}

// Zero-padded versions keep keys in numeric order.
func dataKey(version int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", dataKeyPrefix, version))
}

func metaKey(version int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", metaKeyPrefix, version))
}

var _ recommend.SnapshotStore = (*Store)(nil)
