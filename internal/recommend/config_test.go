// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("network matches the 16-10-1 topology", func(t *testing.T) {
		if ScorerInputSize != 16 {
			t.Errorf("ScorerInputSize = %d, want 16", ScorerInputSize)
		}
		if cfg.Network.HiddenSize != 10 {
			t.Errorf("Network.HiddenSize = %d, want 10", cfg.Network.HiddenSize)
		}
		if cfg.Network.LearningRate != 0.01 {
			t.Errorf("Network.LearningRate = %f, want 0.01", cfg.Network.LearningRate)
		}
		if cfg.Network.Epochs != 100 {
			t.Errorf("Network.Epochs = %d, want 100", cfg.Network.Epochs)
		}
	})

	t.Run("segment table has three rules", func(t *testing.T) {
		if len(cfg.Segments.Rules) != 3 {
			t.Fatalf("len(Segments.Rules) = %d, want 3", len(cfg.Segments.Rules))
		}
	})

	t.Run("training config has valid defaults", func(t *testing.T) {
		if cfg.Training.Interval != 24*time.Hour {
			t.Errorf("Training.Interval = %v, want 24h", cfg.Training.Interval)
		}
		if cfg.Training.SampleCap != 2000 {
			t.Errorf("Training.SampleCap = %d, want 2000", cfg.Training.SampleCap)
		}
	})

	t.Run("seed is set for determinism", func(t *testing.T) {
		if cfg.Seed == 0 {
			t.Error("Seed = 0, want non-zero for determinism")
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{name: "valid default config", modify: func(c *Config) {}},
		{name: "zero hidden size", modify: func(c *Config) { c.Network.HiddenSize = 0 }, wantError: true},
		{name: "zero learning rate", modify: func(c *Config) { c.Network.LearningRate = 0 }, wantError: true},
		{name: "zero epochs", modify: func(c *Config) { c.Network.Epochs = 0 }, wantError: true},
		{name: "zero score scale", modify: func(c *Config) { c.Network.ScoreScale = 0 }, wantError: true},
		{name: "zero max clusters", modify: func(c *Config) { c.Clustering.MaxClusters = 0 }, wantError: true},
		{name: "zero restarts", modify: func(c *Config) { c.Clustering.Restarts = 0 }, wantError: true},
		{name: "negative multiplier", modify: func(c *Config) { c.Segments.Rules[1].Match = -1 }, wantError: true},
		{name: "empty rule table", modify: func(c *Config) { c.Segments.Rules = nil }},
		{name: "zero interval", modify: func(c *Config) { c.Training.Interval = 0 }, wantError: true},
		{name: "zero sample cap", modify: func(c *Config) { c.Training.SampleCap = 0 }, wantError: true},
		{name: "negative retry backoff", modify: func(c *Config) { c.Training.RetryBackoff = -time.Second }, wantError: true},
		{name: "max k below default k", modify: func(c *Config) { c.Limits.MaxK = 5 }, wantError: true},
		{
			name:      "cache enabled without entries",
			modify:    func(c *Config) { c.Cache.MaxEntries = 0 },
			wantError: true,
		},
		{
			name: "cache disabled without entries",
			modify: func(c *Config) {
				c.Cache.Enabled = false
				c.Cache.MaxEntries = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	orig := DefaultConfig()
	clone := orig.Clone()

	clone.Segments.Rules[0].Match = 9
	clone.Network.HiddenSize = 3

	if orig.Segments.Rules[0].Match != 1.2 {
		t.Errorf("original rule mutated through clone: %f", orig.Segments.Rules[0].Match)
	}
	if orig.Network.HiddenSize != 10 {
		t.Errorf("original hidden size mutated through clone: %d", orig.Network.HiddenSize)
	}
}

func TestConfig_ClampK(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		in, want int
	}{
		{0, 10},
		{-3, 10},
		{5, 5},
		{100, 100},
		{500, 100},
	}
	for _, tt := range tests {
		if got := cfg.ClampK(tt.in); got != tt.want {
			t.Errorf("ClampK(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestConfig_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	for _, want := range []string{`"interval":"24h0m0s"`, `"retry_backoff":"1m0s"`, `"ttl":"30m0s"`, `"hidden_size":10`} {
		if !strings.Contains(s, want) {
			t.Errorf("marshaled config missing %s: %s", want, s)
		}
	}
}
