// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RecommendEngine is the part of the recommendation engine the scheduler
// drives. Training itself runs on the engine's own worker; these calls only
// queue cycles and never block.
type RecommendEngine interface {
	TriggerTraining(reason string) bool
	TriggerIfStale() bool
}

// RecommendServiceConfig holds configuration for the recommendation service.
type RecommendServiceConfig struct {
	// TrainOnStartup queues a cycle as soon as the service starts.
	TrainOnStartup bool

	// CheckInterval is how often the model is checked for staleness.
	CheckInterval time.Duration
}

// RecommendService schedules training cycles: one at startup when
// configured, then whenever the published model is missing or stale.
type RecommendService struct {
	engine RecommendEngine
	config RecommendServiceConfig
	logger zerolog.Logger
	name   string
}

// NewRecommendService creates a new recommendation service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommendService(engine RecommendEngine, cfg RecommendServiceConfig, logger zerolog.Logger) *RecommendService {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 5 * time.Minute
	}
	return &RecommendService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "recommend").Logger(),
		name:   "recommend-service",
	}
}

// Serve implements the suture.Service interface.
func (s *RecommendService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("check_interval", s.config.CheckInterval).
		Msg("recommendation service starting")

	// A restart after a crash must not queue another startup cycle.
	if s.config.TrainOnStartup {
		s.config.TrainOnStartup = false
		if s.engine.TriggerTraining("startup") {
			s.logger.Info().Msg("startup training queued")
		}
	}

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("recommendation service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if s.engine.TriggerIfStale() {
				s.logger.Debug().Msg("scheduled training queued")
			}
		}
	}
}

// String returns the service name for logging.
func (s *RecommendService) String() string {
	return s.name
}
