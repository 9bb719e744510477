// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package algorithms

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// correlatedSamples returns inputs in [0, 1] whose target is their mean.
func correlatedSamples(n int, rng *rand.Rand) (inputs, targets [][]float64) {
	size := recommend.ScorerInputSize
	for s := 0; s < n; s++ {
		x := make([]float64, size)
		var sum float64
		for i := range x {
			x[i] = rng.Float64()
			sum += x[i]
		}
		inputs = append(inputs, x)
		targets = append(targets, []float64{sum / float64(size)})
	}
	return inputs, targets
}

func TestNewNeuralScorer(t *testing.T) {
	tests := []struct {
		name   string
		cfg    NeuralConfig
		verify func(t *testing.T, n *NeuralScorer)
	}{
		{
			name: "applies defaults for zero config",
			cfg:  NeuralConfig{},
			verify: func(t *testing.T, n *NeuralScorer) {
				if n.InputSize() != recommend.ScorerInputSize {
					t.Errorf("InputSize() = %d, want %d", n.InputSize(), recommend.ScorerInputSize)
				}
				if n.config.HiddenSize != 10 || n.config.OutputSize != 1 || n.config.LearningRate != 0.01 {
					t.Errorf("config = %+v", n.config)
				}
			},
		},
		{
			name: "uses provided config values",
			cfg:  NeuralConfig{InputSize: 4, HiddenSize: 3, OutputSize: 2, LearningRate: 0.5},
			verify: func(t *testing.T, n *NeuralScorer) {
				p := n.Parameters()
				if len(p.W1) != 4 || len(p.W1[0]) != 3 || len(p.W2) != 3 || len(p.W2[0]) != 2 {
					t.Errorf("unexpected shapes W1 %dx%d W2 %dx%d", len(p.W1), len(p.W1[0]), len(p.W2), len(p.W2[0]))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNeuralScorer(tt.cfg, nil)
			if n == nil {
				t.Fatal("NewNeuralScorer() returned nil")
			}
			tt.verify(t, n)
		})
	}
}

func TestNeuralScorer_XavierInit(t *testing.T) {
	n := NewNeuralScorer(DefaultNeuralConfig(), seeded(1))
	p := n.Parameters()

	limit1 := math.Sqrt(6.0 / float64(recommend.ScorerInputSize+10))
	for i, row := range p.W1 {
		for j, w := range row {
			if math.Abs(w) > limit1 {
				t.Errorf("W1[%d][%d] = %f exceeds %f", i, j, w, limit1)
			}
		}
	}
	limit2 := math.Sqrt(6.0 / 11.0)
	for j, row := range p.W2 {
		if math.Abs(row[0]) > limit2 {
			t.Errorf("W2[%d][0] = %f exceeds %f", j, row[0], limit2)
		}
	}
	for _, b := range append(p.B1, p.B2...) {
		if b != 0 {
			t.Errorf("bias = %f, want 0", b)
		}
	}
}

func TestNeuralScorer_PredictBounds(t *testing.T) {
	n := NewNeuralScorer(DefaultNeuralConfig(), seeded(7))
	rng := seeded(8)

	for trial := 0; trial < 200; trial++ {
		x := make([]float64, recommend.ScorerInputSize)
		for i := range x {
			x[i] = (rng.Float64()*2 - 1) * 1000
		}
		p, err := n.Predict(x)
		if err != nil {
			t.Fatalf("Predict() error = %v", err)
		}
		if math.IsNaN(p) || p < 0 || p > 1 {
			t.Fatalf("Predict() = %f, want value in [0, 1]", p)
		}
	}
}

func TestNeuralScorer_ShapeErrors(t *testing.T) {
	n := NewNeuralScorer(DefaultNeuralConfig(), seeded(1))

	if _, err := n.Predict(make([]float64, 14)); !errors.Is(err, recommend.ErrShapeMismatch) {
		t.Errorf("Predict(short) error = %v, want ErrShapeMismatch", err)
	}

	good := [][]float64{make([]float64, recommend.ScorerInputSize)}
	tests := []struct {
		name    string
		inputs  [][]float64
		targets [][]float64
		want    error
	}{
		{"length mismatch", good, [][]float64{{1}, {0}}, recommend.ErrShapeMismatch},
		{"short input", [][]float64{{1, 2}}, [][]float64{{1}}, recommend.ErrShapeMismatch},
		{"wide target", good, [][]float64{{1, 0}}, recommend.ErrShapeMismatch},
		{"empty", nil, nil, recommend.ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := n.Train(tt.inputs, tt.targets, 1); !errors.Is(err, tt.want) {
				t.Errorf("Train() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := n.Train(good, [][]float64{{1}}, 0); err == nil {
		t.Error("Train() with zero epochs should fail")
	}
}

func TestNeuralScorer_LossDecreases(t *testing.T) {
	n := NewNeuralScorer(DefaultNeuralConfig(), seeded(42))
	inputs, targets := correlatedSamples(40, seeded(3))

	losses, err := n.Train(inputs, targets, 100)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if len(losses) != 100 {
		t.Fatalf("len(losses) = %d, want 100", len(losses))
	}
	if losses[99] > losses[0] {
		t.Errorf("final loss %f greater than initial loss %f", losses[99], losses[0])
	}
	for i, l := range losses {
		if math.IsNaN(l) || l < 0 {
			t.Fatalf("losses[%d] = %f", i, l)
		}
	}
}

func TestNeuralScorer_Deterministic(t *testing.T) {
	inputs, targets := correlatedSamples(20, seeded(5))

	a := NewNeuralScorer(DefaultNeuralConfig(), seeded(11))
	b := NewNeuralScorer(DefaultNeuralConfig(), seeded(11))
	la, _ := a.Train(inputs, targets, 10)
	lb, _ := b.Train(inputs, targets, 10)
	for i := range la {
		if la[i] != lb[i] {
			t.Fatalf("epoch %d loss differs: %f vs %f", i, la[i], lb[i])
		}
	}

	pa, _ := a.Predict(inputs[0])
	pb, _ := b.Predict(inputs[0])
	if pa != pb {
		t.Errorf("predictions differ: %f vs %f", pa, pb)
	}

	factory := NewScorerFactory(DefaultNeuralConfig(), 9)
	s1, s2 := factory(), factory()
	if s1.Parameters().W1[0][0] != s2.Parameters().W1[0][0] {
		t.Error("factory scorers should start from identical weights")
	}
}

func TestNeuralScorer_Parameters(t *testing.T) {
	n := NewNeuralScorer(DefaultNeuralConfig(), seeded(2))
	x := make([]float64, recommend.ScorerInputSize)
	for i := range x {
		x[i] = 0.3
	}
	before, _ := n.Predict(x)

	p := n.Parameters()
	p.W1[0][0] = 99
	p.B2[0] = -99
	after, _ := n.Predict(x)
	if before != after {
		t.Error("mutating Parameters() result changed the scorer")
	}

	other := NewNeuralScorer(DefaultNeuralConfig(), seeded(3))
	if err := other.SetParameters(n.Parameters()); err != nil {
		t.Fatalf("SetParameters() error = %v", err)
	}
	restored, _ := other.Predict(x)
	if restored != before {
		t.Errorf("restored prediction = %f, want %f", restored, before)
	}

	bad := n.Parameters()
	bad.W2 = bad.W2[:5]
	if err := other.SetParameters(bad); !errors.Is(err, recommend.ErrShapeMismatch) {
		t.Errorf("SetParameters(bad) error = %v, want ErrShapeMismatch", err)
	}
	bad = n.Parameters()
	bad.W1[3] = bad.W1[3][:2]
	if err := other.SetParameters(bad); !errors.Is(err, recommend.ErrShapeMismatch) {
		t.Errorf("SetParameters(ragged) error = %v, want ErrShapeMismatch", err)
	}
}

func TestNeuralScorer_ConcurrentPredict(t *testing.T) {
	n := NewNeuralScorer(DefaultNeuralConfig(), seeded(4))
	inputs, _ := correlatedSamples(16, seeded(6))

	want := make([]float64, len(inputs))
	for i, x := range inputs {
		want[i], _ = n.Predict(x)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, x := range inputs {
				got, err := n.Predict(x)
				if err != nil || got != want[i] {
					t.Errorf("Predict() = %f, %v; want %f", got, err, want[i])
					return
				}
			}
		}()
	}
	wg.Wait()
}
