// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Network contains parameters for the neural scorer.
	Network NetworkConfig `json:"network"`

	// Clustering contains parameters for user segmentation.
	Clustering ClusteringConfig `json:"clustering"`

	// Segments contains the segment boost table and the heuristic used
	// for users that were not part of the last clustering run.
	Segments SegmentConfig `json:"segments"`

	// Training contains training schedule parameters.
	Training TrainingConfig `json:"training"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains embedding cache parameters.
	Cache CacheConfig `json:"cache"`

	// Seed is the random seed for weight initialization and clustering.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed"`
}

// NetworkConfig contains parameters for the feed-forward scorer.
type NetworkConfig struct {
	// HiddenSize is the number of hidden units.
	// Default: 10.
	HiddenSize int `json:"hidden_size"`

	// LearningRate is the SGD step size.
	// Default: 0.01.
	LearningRate float64 `json:"learning_rate"`

	// Epochs is the number of passes over the training set per cycle.
	// Default: 100.
	Epochs int `json:"epochs"`

	// ScoreScale multiplies the [0,1] prediction before segment boosting.
	// Default: 100.
	ScoreScale float64 `json:"score_scale"`
}

// ClusteringConfig contains parameters for k-means user segmentation.
type ClusteringConfig struct {
	// MaxClusters caps k.
	// Default: 5.
	MaxClusters int `json:"max_clusters"`

	// UsersPerCluster derives k as userCount/UsersPerCluster.
	// Default: 10.
	UsersPerCluster int `json:"users_per_cluster"`

	// MaxIterations bounds the assign/update rounds per restart.
	// Default: 50.
	MaxIterations int `json:"max_iterations"`

	// Restarts is the number of random initializations. The partition with
	// the lowest within-cluster squared error wins.
	// Default: 25.
	Restarts int `json:"restarts"`
}

// BoostRule is the price-band multiplier applied for one segment.
type BoostRule struct {
	// Threshold is the price band boundary.
	Threshold float64 `json:"threshold"`

	// Above selects price > Threshold when true and price < Threshold when false.
	Above bool `json:"above"`

	// Match is applied when the price falls in the band.
	Match float64 `json:"match"`

	// Otherwise is applied when it does not.
	Otherwise float64 `json:"otherwise"`
}

// HeuristicConfig holds the weights and thresholds used to place users that
// have no cluster assignment.
type HeuristicConfig struct {
	ProducerRoleWeight   float64 `json:"producer_role_weight"`
	ProducerCartWeight   float64 `json:"producer_cart_weight"`
	ProducerThreshold    float64 `json:"producer_threshold"`
	BuyerOrdersWeight    float64 `json:"buyer_orders_weight"`
	BuyerSpendWeight     float64 `json:"buyer_spend_weight"`
	BuyerThreshold       float64 `json:"buyer_threshold"`
	CasualRecencyWeight  float64 `json:"casual_recency_weight"`
	CasualActivityWeight float64 `json:"casual_activity_weight"`
	CasualThreshold      float64 `json:"casual_threshold"`
}

// SegmentConfig contains the segment boost table.
type SegmentConfig struct {
	// Rules is indexed by segment. Segments without a rule get x1.0.
	Rules []BoostRule `json:"rules"`

	// Heuristic places users that were not clustered.
	Heuristic HeuristicConfig `json:"heuristic"`
}

// TrainingConfig contains training schedule parameters.
type TrainingConfig struct {
	// Interval is how long a published model stays fresh.
	// Default: 24h.
	Interval time.Duration `json:"interval"`

	// SampleCap bounds the training snapshot size.
	// Default: 2000.
	SampleCap int `json:"sample_cap"`

	// RetryBackoff is the minimum gap between request-triggered cycles
	// after a failed one.
	// Default: 1m.
	RetryBackoff time.Duration `json:"retry_backoff"`

	// MinInteractionsForPersonalized sends users with fewer tracked
	// interactions straight to the popularity list. Zero disables the check.
	// Default: 0.
	MinInteractionsForPersonalized int `json:"min_interactions_for_personalized"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// MaxCandidates is the maximum number of candidate products scored per request.
	// Default: 100.
	MaxCandidates int `json:"max_candidates"`

	// DefaultK is the default number of recommendations to return.
	// Default: 10.
	DefaultK int `json:"default_k"`

	// MaxK is the maximum allowed K value.
	// Default: 100.
	MaxK int `json:"max_k"`
}

// CacheConfig contains embedding cache parameters.
type CacheConfig struct {
	// Enabled controls whether request-time embeddings are cached.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live. Zero keeps entries until evicted.
	// Default: 30m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached embeddings per entity kind.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DefaultSegmentRules returns the stock boost table:
// casual shoppers favor cheap products, producers favor equipment, premium
// buyers favor expensive products.
func DefaultSegmentRules() []BoostRule {
	return []BoostRule{
		{Threshold: 200, Above: false, Match: 1.2, Otherwise: 0.8},
		{Threshold: 100, Above: true, Match: 1.3, Otherwise: 1.0},
		{Threshold: 500, Above: true, Match: 1.4, Otherwise: 0.9},
	}
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() *Config {
	return &Config{
		Network: NetworkConfig{
			HiddenSize:   10,
			LearningRate: 0.01,
			Epochs:       100,
			ScoreScale:   100,
		},
		Clustering: ClusteringConfig{
			MaxClusters:     5,
			UsersPerCluster: 10,
			MaxIterations:   50,
			Restarts:        25,
		},
		Segments: SegmentConfig{
			Rules: DefaultSegmentRules(),
			Heuristic: HeuristicConfig{
				ProducerRoleWeight:   0.8,
				ProducerCartWeight:   0.2,
				ProducerThreshold:    0.7,
				BuyerOrdersWeight:    0.4,
				BuyerSpendWeight:     0.6,
				BuyerThreshold:       0.6,
				CasualRecencyWeight:  0.5,
				CasualActivityWeight: 0.5,
				CasualThreshold:      0.5,
			},
		},
		Training: TrainingConfig{
			Interval:     24 * time.Hour,
			SampleCap:    2000,
			RetryBackoff: time.Minute,
		},
		Limits: LimitsConfig{
			MaxCandidates: 100,
			DefaultK:      10,
			MaxK:          100,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        30 * time.Minute,
			MaxEntries: 10000,
		},
		Seed: 42,
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Network.HiddenSize < 1 {
		return fmt.Errorf("network.hidden_size must be positive, got %d", c.Network.HiddenSize)
	}
	if c.Network.LearningRate <= 0 {
		return fmt.Errorf("network.learning_rate must be positive, got %f", c.Network.LearningRate)
	}
	if c.Network.Epochs < 1 {
		return fmt.Errorf("network.epochs must be positive, got %d", c.Network.Epochs)
	}
	if c.Network.ScoreScale <= 0 {
		return fmt.Errorf("network.score_scale must be positive, got %f", c.Network.ScoreScale)
	}

	if c.Clustering.MaxClusters < 1 {
		return fmt.Errorf("clustering.max_clusters must be positive, got %d", c.Clustering.MaxClusters)
	}
	if c.Clustering.UsersPerCluster < 1 {
		return fmt.Errorf("clustering.users_per_cluster must be positive, got %d", c.Clustering.UsersPerCluster)
	}
	if c.Clustering.MaxIterations < 1 {
		return fmt.Errorf("clustering.max_iterations must be positive, got %d", c.Clustering.MaxIterations)
	}
	if c.Clustering.Restarts < 1 {
		return fmt.Errorf("clustering.restarts must be positive, got %d", c.Clustering.Restarts)
	}

	for i, r := range c.Segments.Rules {
		if r.Match < 0 || r.Otherwise < 0 {
			return fmt.Errorf("segments.rules[%d] multipliers must be non-negative", i)
		}
	}

	if c.Training.Interval <= 0 {
		return fmt.Errorf("training.interval must be positive, got %v", c.Training.Interval)
	}
	if c.Training.SampleCap < 1 {
		return fmt.Errorf("training.sample_cap must be positive, got %d", c.Training.SampleCap)
	}
	if c.Training.RetryBackoff < 0 {
		return fmt.Errorf("training.retry_backoff must be non-negative, got %v", c.Training.RetryBackoff)
	}
	if c.Training.MinInteractionsForPersonalized < 0 {
		return fmt.Errorf("training.min_interactions_for_personalized must be non-negative, got %d",
			c.Training.MinInteractionsForPersonalized)
	}

	if c.Limits.MaxCandidates < 1 {
		return fmt.Errorf("limits.max_candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}

	if c.Cache.Enabled && c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be positive when cache is enabled, got %d", c.Cache.MaxEntries)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Segments.Rules = append([]BoostRule(nil), c.Segments.Rules...)
	return &out
}

// ClampK returns k bounded to [1, MaxK], using DefaultK for non-positive values.
func (c *Config) ClampK(k int) int {
	if k <= 0 {
		return c.Limits.DefaultK
	}
	if k > c.Limits.MaxK {
		return c.Limits.MaxK
	}
	return k
}

// MarshalJSON renders durations as strings.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	type training struct {
		Interval                       string `json:"interval"`
		SampleCap                      int    `json:"sample_cap"`
		RetryBackoff                   string `json:"retry_backoff"`
		MinInteractionsForPersonalized int    `json:"min_interactions_for_personalized"`
	}
	type cache struct {
		Enabled    bool   `json:"enabled"`
		TTL        string `json:"ttl"`
		MaxEntries int    `json:"max_entries"`
	}
	return json.Marshal(&struct {
		*Alias
		Training training `json:"training"`
		Cache    cache    `json:"cache"`
	}{
		Alias: (*Alias)(c),
		Training: training{
			Interval:                       c.Training.Interval.String(),
			SampleCap:                      c.Training.SampleCap,
			RetryBackoff:                   c.Training.RetryBackoff.String(),
			MinInteractionsForPersonalized: c.Training.MinInteractionsForPersonalized,
		},
		Cache: cache{
			Enabled:    c.Cache.Enabled,
			TTL:        c.Cache.TTL.String(),
			MaxEntries: c.Cache.MaxEntries,
		},
	})
}
