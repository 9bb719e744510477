// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Database  DatabaseConfig  `koanf:"database"`
	Recommend RecommendConfig `koanf:"recommend"`
	Store     StoreConfig     `koanf:"store"`
	Events    EventsConfig    `koanf:"events"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // "development", "staging", "production" (default: "development")
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// SecurityConfig holds rate limiting and CORS settings.
// Authentication is delegated to the storefront gateway in front of this service.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path                   string        `koanf:"path"`
	MaxMemory              string        `koanf:"max_memory"`
	Threads                int           `koanf:"threads"`                  // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool          `koanf:"preserve_insertion_order"` // false lowers memory for large scans
	SeedMockData           bool          `koanf:"seed_mock_data"`           // load the demo marketplace on an empty database
	SkipIndexes            bool          `koanf:"skip_indexes"`             // tests only
	QueryTimeout           time.Duration `koanf:"query_timeout"`
	Breaker                BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker around recommendation reads.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32 `koanf:"max_requests"`

	// Interval is the cyclic period of the closed state after which counts are cleared.
	Interval time.Duration `koanf:"interval"`

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration `koanf:"timeout"`

	// MinRequests is the number of requests in an interval before the
	// failure ratio is evaluated.
	MinRequests uint32 `koanf:"min_requests"`

	// FailureRatio trips the breaker once failures/requests reaches it.
	FailureRatio float64 `koanf:"failure_ratio"`
}

// RecommendConfig holds the recommendation engine settings that operators
// commonly tune. The remaining engine knobs keep their built-in defaults.
type RecommendConfig struct {
	TrainOnStartup  bool          `koanf:"train_on_startup"`
	TrainInterval   time.Duration `koanf:"train_interval"`
	CheckInterval   time.Duration `koanf:"check_interval"`
	Epochs          int           `koanf:"epochs"`
	HiddenSize      int           `koanf:"hidden_size"`
	LearningRate    float64       `koanf:"learning_rate"`
	SampleCap       int           `koanf:"sample_cap"`
	MaxClusters     int           `koanf:"max_clusters"`
	UsersPerCluster int           `koanf:"users_per_cluster"`
	ClusterRestarts int           `koanf:"cluster_restarts"`
	MaxCandidates   int           `koanf:"max_candidates"`
	DefaultK        int           `koanf:"default_k"`
	MaxK            int           `koanf:"max_k"`
	MinInteractions int           `koanf:"min_interactions"`
	RetryBackoff    time.Duration `koanf:"retry_backoff"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"` // 0 disables the embedding cache
	Seed            int64         `koanf:"seed"`
}

// StoreConfig holds model snapshot persistence settings (BadgerDB).
type StoreConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Path        string `koanf:"path"`
	InMemory    bool   `koanf:"in_memory"`
	Compression bool   `koanf:"compression"` // Snappy block compression in BadgerDB
	Keep        int    `koanf:"keep"`        // number of snapshots retained
}

// EventsConfig holds the in-process interaction event bus settings.
type EventsConfig struct {
	Enabled        bool          `koanf:"enabled"` // false persists interactions synchronously
	BufferSize     int64         `koanf:"buffer_size"`
	RetryCount     int           `koanf:"retry_count"`
	RetryInterval  time.Duration `koanf:"retry_interval"`
	PersistTimeout time.Duration `koanf:"persist_timeout"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
	Topic          string        `koanf:"topic"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes file:line in log output.
	// Default: false
	Caller bool `koanf:"caller"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
