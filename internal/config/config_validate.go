// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	// A wildcard origin is acceptable behind a gateway but not when served directly in production.
	if c.Server.IsProduction() {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must list explicit origins in production")
			}
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative, got %d", c.Database.Threads)
	}
	if c.Database.QueryTimeout < 0 {
		return fmt.Errorf("DUCKDB_QUERY_TIMEOUT must be non-negative, got %v", c.Database.QueryTimeout)
	}

	b := c.Database.Breaker
	if !b.Enabled {
		return nil
	}
	if b.FailureRatio < 0 || b.FailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be between 0 and 1, got %v", b.FailureRatio)
	}
	if b.Timeout < 0 || b.Interval < 0 {
		return fmt.Errorf("BREAKER_TIMEOUT and BREAKER_INTERVAL must be non-negative")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.TrainInterval <= 0 {
		return fmt.Errorf("RECOMMEND_TRAIN_INTERVAL must be positive, got %v", r.TrainInterval)
	}
	if r.CheckInterval <= 0 {
		return fmt.Errorf("RECOMMEND_CHECK_INTERVAL must be positive, got %v", r.CheckInterval)
	}
	if r.Epochs < 1 || r.HiddenSize < 1 || r.SampleCap < 1 {
		return fmt.Errorf("RECOMMEND_EPOCHS, RECOMMEND_HIDDEN_SIZE and RECOMMEND_SAMPLE_CAP must be positive")
	}
	if r.LearningRate <= 0 {
		return fmt.Errorf("RECOMMEND_LEARNING_RATE must be positive, got %v", r.LearningRate)
	}
	if r.MaxClusters < 1 || r.UsersPerCluster < 1 || r.ClusterRestarts < 1 {
		return fmt.Errorf("RECOMMEND_MAX_CLUSTERS, RECOMMEND_USERS_PER_CLUSTER and RECOMMEND_CLUSTER_RESTARTS must be positive")
	}
	if r.DefaultK < 1 || r.MaxK < r.DefaultK {
		return fmt.Errorf("RECOMMEND_MAX_K (%d) must be >= RECOMMEND_DEFAULT_K (%d) >= 1", r.MaxK, r.DefaultK)
	}
	if r.MaxCandidates < 1 {
		return fmt.Errorf("RECOMMEND_MAX_CANDIDATES must be positive, got %d", r.MaxCandidates)
	}
	if r.MinInteractions < 0 || r.CacheMaxEntries < 0 {
		return fmt.Errorf("RECOMMEND_MIN_INTERACTIONS and RECOMMEND_CACHE_MAX_ENTRIES must be non-negative")
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.Enabled || c.Store.InMemory {
		return nil
	}
	if c.Store.Path == "" {
		return fmt.Errorf("MODEL_STORE_PATH is required when MODEL_STORE_ENABLED=true")
	}
	if c.Store.Keep < 0 {
		return fmt.Errorf("MODEL_STORE_KEEP must be non-negative, got %d", c.Store.Keep)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC is required when EVENTS_ENABLED=true")
	}
	if c.Events.BufferSize < 0 || c.Events.RetryCount < 0 {
		return fmt.Errorf("EVENTS_BUFFER_SIZE and EVENTS_RETRY_COUNT must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	level := strings.ToLower(c.Logging.Level)
	if !validLevels[level] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
