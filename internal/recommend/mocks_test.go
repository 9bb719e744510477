// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errMockDB = errors.New("mock database failure")

// mockDataProvider implements DataProvider for testing.
type mockDataProvider struct {
	mu sync.Mutex

	users      map[int64]*UserAggregates
	products   map[int64]*ProductRow
	candidates map[int64][]CandidateProduct
	training   []TrainingRow
	popular    []PopularProduct

	usersErr      error
	productsErr   error
	candidatesErr error
	trainingErr   error
	popularErr    error

	// trainingGate blocks FetchTrainingSnapshot until closed when set.
	trainingGate chan struct{}

	trainingCalls int
	popularCalls  int
}

func newMockDataProvider() *mockDataProvider {
	return &mockDataProvider{
		users:      make(map[int64]*UserAggregates),
		products:   make(map[int64]*ProductRow),
		candidates: make(map[int64][]CandidateProduct),
	}
}

func (m *mockDataProvider) FetchUserAggregates(_ context.Context, userID int64) (*UserAggregates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.usersErr != nil {
		return nil, m.usersErr
	}
	return m.users[userID], nil
}

func (m *mockDataProvider) FetchProductRow(_ context.Context, productID int64) (*ProductRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.productsErr != nil {
		return nil, m.productsErr
	}
	return m.products[productID], nil
}

func (m *mockDataProvider) FetchCandidateProducts(_ context.Context, userID int64) ([]CandidateProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.candidatesErr != nil {
		return nil, m.candidatesErr
	}
	return append([]CandidateProduct(nil), m.candidates[userID]...), nil
}

func (m *mockDataProvider) FetchTrainingSnapshot(_ context.Context, limit int) ([]TrainingRow, error) {
	m.mu.Lock()
	m.trainingCalls++
	gate := m.trainingGate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.trainingErr != nil {
		return nil, m.trainingErr
	}
	rows := m.training
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return append([]TrainingRow(nil), rows...), nil
}

func (m *mockDataProvider) RecordPopularityCounts(_ context.Context, limit int) ([]PopularProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.popularCalls++
	if m.popularErr != nil {
		return nil, m.popularErr
	}
	rows := m.popular
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return append([]PopularProduct(nil), rows...), nil
}

func (m *mockDataProvider) setTrainingErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingErr = err
}

func (m *mockDataProvider) trainingCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trainingCalls
}

// mockInteractionStore implements InteractionStore for testing.
type mockInteractionStore struct {
	mu       sync.Mutex
	stats    map[int64]*InteractionStats
	recorded []*Interaction
	statsErr error
}

func (m *mockInteractionStore) RecordInteraction(_ context.Context, in *Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, in)
	return nil
}

func (m *mockInteractionStore) FetchInteractionStats(_ context.Context, userID int64) (*InteractionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return m.stats[userID], nil
}

// mockPublisher implements InteractionPublisher for testing.
type mockPublisher struct {
	mu        sync.Mutex
	published []*Interaction
	err       error
}

func (m *mockPublisher) PublishInteraction(_ context.Context, in *Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, in)
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

// fakeScorer implements Scorer with a pluggable prediction function.
type fakeScorer struct {
	mu          sync.Mutex
	inputSize   int
	predict     func(input []float64) (float64, error)
	trainErr    error
	panicTrain  bool
	initialized int
	trainCalls  int
	samples     int
}

func newFakeScorer() *fakeScorer {
	return &fakeScorer{inputSize: ScorerInputSize}
}

func (f *fakeScorer) Initialize() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized++
}

func (f *fakeScorer) Train(inputs, targets [][]float64, epochs int) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trainCalls++
	if f.panicTrain {
		panic("scorer exploded")
	}
	if f.trainErr != nil {
		return nil, f.trainErr
	}
	if len(inputs) != len(targets) {
		return nil, ShapeError("targets", len(targets), len(inputs))
	}
	f.samples = len(inputs)
	losses := make([]float64, epochs)
	for i := range losses {
		losses[i] = 1 / float64(i+1)
	}
	return losses, nil
}

func (f *fakeScorer) Predict(input []float64) (float64, error) {
	if len(input) != f.inputSize {
		return 0, ShapeError("input", len(input), f.inputSize)
	}
	if f.predict != nil {
		return f.predict(input)
	}
	return 0.5, nil
}

func (f *fakeScorer) Parameters() NetworkParameters { return NetworkParameters{} }

func (f *fakeScorer) SetParameters(NetworkParameters) error { return nil }

func (f *fakeScorer) InputSize() int { return f.inputSize }

// fakeClusterer assigns users round-robin across k segments.
type fakeClusterer struct {
	mu    sync.Mutex
	err   error
	calls int
	lastK int
}

func (f *fakeClusterer) Cluster(vectors [][]float64, ids []int64, k int) (map[Segment][]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	if len(vectors) != len(ids) {
		return nil, ShapeError("ids", len(ids), len(vectors))
	}
	out := make(map[Segment][]int64, k)
	for s := 0; s < k; s++ {
		out[Segment(s)] = nil
	}
	for i, id := range ids {
		seg := Segment(i % k)
		out[seg] = append(out[seg], id)
	}
	return out, nil
}

// trainingRows builds users x products rows with varied attributes.
func trainingRows(users, products int) []TrainingRow {
	rows := make([]TrainingRow, 0, users*products)
	for u := 1; u <= users; u++ {
		role := "CUSTOMER"
		if u%4 == 0 {
			role = RoleProducer
		}
		for p := 1; p <= products; p++ {
			rows = append(rows, TrainingRow{
				UserID:           int64(u),
				Role:             role,
				ProductID:        int64(100 + p),
				Price:            float64(p * 75),
				Quantity:         10 + p,
				OrderCount:       u % 7,
				AvgOrderAmount:   float64(u * 40),
				InteractionScore: float64((u + p) % 6),
			})
		}
	}
	return rows
}

// waitCycle blocks until the coordinator reports a finished cycle.
func waitCycle(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for training cycle")
		return nil
	}
}
