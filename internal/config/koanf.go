// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/comercio/config.yaml",
	"/etc/comercio/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3857,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Database: DatabaseConfig{
			Path:                   "/data/comercio.duckdb",
			MaxMemory:              "1GB",
			Threads:                0,
			PreserveInsertionOrder: true,
			SeedMockData:           false,
			QueryTimeout:           30 * time.Second,
			Breaker: BreakerConfig{
				Enabled:      true,
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Recommend: RecommendConfig{
			TrainOnStartup:  true,
			TrainInterval:   24 * time.Hour,
			CheckInterval:   5 * time.Minute,
			Epochs:          100,
			HiddenSize:      10,
			LearningRate:    0.01,
			SampleCap:       2000,
			MaxClusters:     5,
			UsersPerCluster: 10,
			ClusterRestarts: 25,
			MaxCandidates:   100,
			DefaultK:        10,
			MaxK:            100,
			MinInteractions: 0, // personalize every user with features
			RetryBackoff:    time.Minute,
			CacheTTL:        30 * time.Minute,
			CacheMaxEntries: 10000,
			Seed:            42,
		},
		Store: StoreConfig{
			Enabled:     true,
			Path:        "/data/models",
			InMemory:    false,
			Compression: true,
			Keep:        5,
		},
		Events: EventsConfig{
			Enabled:        true,
			BufferSize:     1024,
			RetryCount:     3,
			RetryInterval:  100 * time.Millisecond,
			PersistTimeout: 5 * time.Second,
			CloseTimeout:   10 * time.Second,
			Topic:          "interactions.tracked",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources:
//  1. Built-in defaults
//  2. Config file (optional, from CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := FindConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// HTTP_PORT -> server.port
	// RECOMMEND_EPOCHS -> recommend.epochs
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile returns the first existing config file path or "".
func FindConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated env values into string slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from defaults or YAML)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Database
	"duckdb_path":                     "database.path",
	"duckdb_max_memory":               "database.max_memory",
	"duckdb_threads":                  "database.threads",
	"duckdb_preserve_insertion_order": "database.preserve_insertion_order",
	"duckdb_query_timeout":            "database.query_timeout",
	"seed_mock_data":                  "database.seed_mock_data",
	"breaker_enabled":                 "database.breaker.enabled",
	"breaker_max_requests":            "database.breaker.max_requests",
	"breaker_interval":                "database.breaker.interval",
	"breaker_timeout":                 "database.breaker.timeout",
	"breaker_min_requests":            "database.breaker.min_requests",
	"breaker_failure_ratio":           "database.breaker.failure_ratio",

	// Recommendation engine
	"recommend_train_on_startup":  "recommend.train_on_startup",
	"recommend_train_interval":    "recommend.train_interval",
	"recommend_check_interval":    "recommend.check_interval",
	"recommend_epochs":            "recommend.epochs",
	"recommend_hidden_size":       "recommend.hidden_size",
	"recommend_learning_rate":     "recommend.learning_rate",
	"recommend_sample_cap":        "recommend.sample_cap",
	"recommend_max_clusters":      "recommend.max_clusters",
	"recommend_users_per_cluster": "recommend.users_per_cluster",
	"recommend_cluster_restarts":  "recommend.cluster_restarts",
	"recommend_max_candidates":    "recommend.max_candidates",
	"recommend_default_k":         "recommend.default_k",
	"recommend_max_k":             "recommend.max_k",
	"recommend_min_interactions":  "recommend.min_interactions",
	"recommend_retry_backoff":     "recommend.retry_backoff",
	"recommend_cache_ttl":         "recommend.cache_ttl",
	"recommend_cache_max_entries": "recommend.cache_max_entries",
	"recommend_seed":              "recommend.seed",

	// Model snapshot store
	"model_store_enabled":     "store.enabled",
	"model_store_path":        "store.path",
	"model_store_in_memory":   "store.in_memory",
	"model_store_compression": "store.compression",
	"model_store_keep":        "store.keep",

	// Interaction event bus
	"events_enabled":         "events.enabled",
	"events_buffer_size":     "events.buffer_size",
	"events_retry_count":     "events.retry_count",
	"events_retry_interval":  "events.retry_interval",
	"events_persist_timeout": "events.persist_timeout",
	"events_close_timeout":   "events.close_timeout",
	"events_topic":           "events.topic",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf paths.
// Unmapped variables return "" and are skipped so unrelated environment
// does not leak into the configuration.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile watches path and calls callback whenever it changes.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
