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

// defaultSeed is used when no random source is supplied.
const defaultSeed = 42

// NeuralConfig contains configuration for the neural scorer.
type NeuralConfig struct {
	// InputSize is the length of a combined user/product input.
	// Default: recommend.ScorerInputSize.
	InputSize int

	// HiddenSize is the number of tanh hidden units.
	// Default: 10.
	HiddenSize int

	// OutputSize is the number of outputs. Only the first is used for scoring.
	// Default: 1.
	OutputSize int

	// LearningRate is the per-sample gradient step.
	// Default: 0.01.
	LearningRate float64
}

// DefaultNeuralConfig returns default neural scorer configuration.
func DefaultNeuralConfig() NeuralConfig {
	return NeuralConfig{
		InputSize:    recommend.ScorerInputSize,
		HiddenSize:   10,
		OutputSize:   1,
		LearningRate: 0.01,
	}
}

// NeuralScorer is a two-layer feed-forward network with tanh activations
// trained by per-sample stochastic gradient descent on squared error.
//
// Forward pass:
//
//	h = tanh(x * W1 + b1)
//	o = tanh(h * W2 + b2)
//
// Weights use Xavier uniform initialization, biases start at zero.
type NeuralScorer struct {
	config NeuralConfig
	rng    *rand.Rand

	mu sync.RWMutex
	w1 [][]float64 // input x hidden
	b1 []float64
	w2 [][]float64 // hidden x output
	b2 []float64
}

// NewNeuralScorer creates a scorer with freshly initialized weights. A nil
// rng uses a fixed seed.
func NewNeuralScorer(cfg NeuralConfig, rng *rand.Rand) *NeuralScorer {
	if cfg.InputSize <= 0 {
		cfg.InputSize = recommend.ScorerInputSize
	}
	if cfg.HiddenSize <= 0 {
		cfg.HiddenSize = 10
	}
	if cfg.OutputSize <= 0 {
		cfg.OutputSize = 1
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.01
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(defaultSeed)) //nolint:gosec // weight initialization does not need crypto randomness
	}

	n := &NeuralScorer{config: cfg, rng: rng}
	n.Initialize()
	return n
}

// InputSize returns the required input length.
func (n *NeuralScorer) InputSize() int {
	return n.config.InputSize
}

// Initialize draws new weights from U(-l, l) with l = sqrt(6/(fanIn+fanOut))
// and zeroes the biases.
func (n *NeuralScorer) Initialize() {
	n.mu.Lock()
	defer n.mu.Unlock()

	in, hidden, out := n.config.InputSize, n.config.HiddenSize, n.config.OutputSize
	n.w1 = xavier(n.rng, in, hidden)
	n.b1 = make([]float64, hidden)
	n.w2 = xavier(n.rng, hidden, out)
	n.b2 = make([]float64, out)
}

func xavier(rng *rand.Rand, fanIn, fanOut int) [][]float64 {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	m := make([][]float64, fanIn)
	for i := range m {
		m[i] = make([]float64, fanOut)
		for j := range m[i] {
			m[i][j] = (rng.Float64()*2 - 1) * limit
		}
	}
	return m
}

// Train runs epochs over the samples in order, updating after each sample,
// and returns the mean squared error of each epoch.
//
//nolint:gocyclo // backpropagation is clearer as a single function
func (n *NeuralScorer) Train(inputs, targets [][]float64, epochs int) ([]float64, error) {
	if len(inputs) != len(targets) {
		return nil, recommend.ShapeError("targets", len(targets), len(inputs))
	}
	if len(inputs) == 0 {
		return nil, recommend.ErrInsufficientData
	}
	if epochs < 1 {
		return nil, fmt.Errorf("epochs must be positive, got %d", epochs)
	}
	for i := range inputs {
		if len(inputs[i]) != n.config.InputSize {
			return nil, recommend.ShapeError(fmt.Sprintf("input %d", i), len(inputs[i]), n.config.InputSize)
		}
		if len(targets[i]) != n.config.OutputSize {
			return nil, recommend.ShapeError(fmt.Sprintf("target %d", i), len(targets[i]), n.config.OutputSize)
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	hiddenSize, outputSize := n.config.HiddenSize, n.config.OutputSize
	lr := n.config.LearningRate
	hidden := make([]float64, hiddenSize)
	output := make([]float64, outputSize)
	outDelta := make([]float64, outputSize)
	hiddenDelta := make([]float64, hiddenSize)
	losses := make([]float64, epochs)

	for epoch := 0; epoch < epochs; epoch++ {
		var total float64
		for s, x := range inputs {
			n.forward(x, hidden, output)

			for k := 0; k < outputSize; k++ {
				diff := targets[s][k] - output[k]
				total += diff * diff
				outDelta[k] = diff * (1 - output[k]*output[k])
			}
			// Hidden deltas use W2 before this sample's update.
			for j := 0; j < hiddenSize; j++ {
				var sum float64
				for k := 0; k < outputSize; k++ {
					sum += outDelta[k] * n.w2[j][k]
				}
				hiddenDelta[j] = sum * (1 - hidden[j]*hidden[j])
			}

			for j := 0; j < hiddenSize; j++ {
				for k := 0; k < outputSize; k++ {
					n.w2[j][k] += lr * outDelta[k] * hidden[j]
				}
			}
			for k := 0; k < outputSize; k++ {
				n.b2[k] += lr * outDelta[k]
			}
			for i, xi := range x {
				for j := 0; j < hiddenSize; j++ {
					n.w1[i][j] += lr * hiddenDelta[j] * xi
				}
			}
			for j := 0; j < hiddenSize; j++ {
				n.b1[j] += lr * hiddenDelta[j]
			}
		}
		losses[epoch] = total / float64(len(inputs)*outputSize)
	}

	return losses, nil
}

// forward writes activations into hidden and output. Caller holds n.mu.
func (n *NeuralScorer) forward(x, hidden, output []float64) {
	for j := range hidden {
		sum := n.b1[j]
		for i, xi := range x {
			sum += xi * n.w1[i][j]
		}
		hidden[j] = math.Tanh(sum)
	}
	for k := range output {
		sum := n.b2[k]
		for j, hj := range hidden {
			sum += hj * n.w2[j][k]
		}
		output[k] = math.Tanh(sum)
	}
}

// Predict returns the first output clamped to [0, 1].
func (n *NeuralScorer) Predict(input []float64) (float64, error) {
	if len(input) != n.config.InputSize {
		return 0, recommend.ShapeError("input", len(input), n.config.InputSize)
	}

	hidden := make([]float64, n.config.HiddenSize)
	output := make([]float64, n.config.OutputSize)

	n.mu.RLock()
	n.forward(input, hidden, output)
	n.mu.RUnlock()

	return recommend.Clamp01(output[0]), nil
}

// Parameters returns a deep copy of the weights.
func (n *NeuralScorer) Parameters() recommend.NetworkParameters {
	n.mu.RLock()
	defer n.mu.RUnlock()

	p := recommend.NetworkParameters{W1: n.w1, B1: n.b1, W2: n.w2, B2: n.b2}
	return p.Clone()
}

// SetParameters replaces the weights after checking every dimension.
func (n *NeuralScorer) SetParameters(p recommend.NetworkParameters) error {
	in, hidden, out := n.config.InputSize, n.config.HiddenSize, n.config.OutputSize
	if err := checkMatrix("W1", p.W1, in, hidden); err != nil {
		return err
	}
	if len(p.B1) != hidden {
		return recommend.ShapeError("B1", len(p.B1), hidden)
	}
	if err := checkMatrix("W2", p.W2, hidden, out); err != nil {
		return err
	}
	if len(p.B2) != out {
		return recommend.ShapeError("B2", len(p.B2), out)
	}

	c := p.Clone()
	n.mu.Lock()
	n.w1, n.b1, n.w2, n.b2 = c.W1, c.B1, c.W2, c.B2
	n.mu.Unlock()
	return nil
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return recommend.ShapeError(name+" rows", len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return recommend.ShapeError(fmt.Sprintf("%s row %d", name, i), len(row), cols)
		}
	}
	return nil
}
