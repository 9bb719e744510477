// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package main

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/tomtom215/comercio-recommender/internal/config"
	"github.com/tomtom215/comercio-recommender/internal/database"
	"github.com/tomtom215/comercio-recommender/internal/events"
	"github.com/tomtom215/comercio-recommender/internal/recommend"
	"github.com/tomtom215/comercio-recommender/internal/recommend/algorithms"
	"github.com/tomtom215/comercio-recommender/internal/recommend/storage"
	"github.com/tomtom215/comercio-recommender/internal/supervisor"
	"github.com/tomtom215/comercio-recommender/internal/supervisor/services"
)

// RecommendComponents holds the engine and the resources it owns.
type RecommendComponents struct {
	Engine    *recommend.Engine
	Bus       *events.Bus // nil when EVENTS_ENABLED=false
	Snapshots *storage.Store
	Breaker   *database.BreakerProvider
}

// Close releases the event bus and snapshot store.
func (c *RecommendComponents) Close() error {
	var errs []error
	if c.Bus != nil {
		errs = append(errs, c.Bus.Close())
	}
	if c.Snapshots != nil {
		errs = append(errs, c.Snapshots.Close())
	}
	return errors.Join(errs...)
}

// initRecommend builds the engine over db and wires the optional breaker,
// snapshot store and event bus.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initRecommend(cfg *config.Config, db *database.DB, logger zerolog.Logger) (*RecommendComponents, error) {
	engineCfg := buildEngineConfig(cfg)

	logger.Info().
		Dur("train_interval", engineCfg.Training.Interval).
		Bool("train_on_startup", cfg.Recommend.TrainOnStartup).
		Int("epochs", engineCfg.Network.Epochs).
		Int("max_clusters", engineCfg.Clustering.MaxClusters).
		Bool("embedding_cache", engineCfg.Cache.Enabled).
		Msg("initializing recommendation engine")

	comps := &RecommendComponents{}

	db.SetCandidateLimit(engineCfg.Limits.MaxCandidates)

	var source recommend.DataProvider = db
	if cfg.Database.Breaker.Enabled {
		comps.Breaker = database.NewBreakerProvider(db, cfg.Database.Breaker)
		source = comps.Breaker
		logger.Info().Msg("circuit breaker enabled for recommendation reads")
	}

	newScorer := algorithms.NewScorerFactory(algorithms.NeuralConfigFrom(engineCfg.Network), engineCfg.Seed)
	clusterer := algorithms.NewKMeans(
		algorithms.KMeansConfigFrom(engineCfg.Clustering),
		rand.New(rand.NewSource(engineCfg.Seed)), //nolint:gosec // deterministic clustering
	)

	engine, err := recommend.NewEngine(engineCfg, source, newScorer, clusterer, logger)
	if err != nil {
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}
	engine.SetInteractionStore(db)
	comps.Engine = engine

	if cfg.Store.Enabled {
		store, err := storage.Open(storage.Config{
			Path:        cfg.Store.Path,
			InMemory:    cfg.Store.InMemory,
			Compression: cfg.Store.Compression,
			Keep:        cfg.Store.Keep,
		})
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		comps.Snapshots = store
		engine.SetSnapshotStore(store)
		logger.Info().Str("path", cfg.Store.Path).Bool("in_memory", cfg.Store.InMemory).Msg("model snapshot store opened")
	}

	if cfg.Events.Enabled {
		bus, err := events.NewBus(cfg.Events, db, logger)
		if err != nil {
			_ = comps.Close()
			return nil, fmt.Errorf("create interaction bus: %w", err)
		}
		comps.Bus = bus
		engine.SetPublisher(bus.Publisher())
	} else {
		engine.SetPublisher(events.NewSyncPublisher(db))
		logger.Info().Msg("interaction bus disabled; interactions are written synchronously")
	}

	return comps, nil
}

// addToSupervisor registers the training worker, the retrain scheduler and,
// if enabled, the interaction router.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func (c *RecommendComponents) addToSupervisor(tree *supervisor.SupervisorTree, cfg *config.Config, logger zerolog.Logger) {
	tree.AddModelService(c.Engine.Coordinator())
	tree.AddModelService(services.NewRecommendService(c.Engine, services.RecommendServiceConfig{
		TrainOnStartup: cfg.Recommend.TrainOnStartup,
		CheckInterval:  cfg.Recommend.CheckInterval,
	}, logger))

	if c.Bus != nil {
		tree.AddMessagingService(services.NewEventRouterService(c.Bus, cfg.Events.CloseTimeout))
	}
}

// buildEngineConfig maps operator settings onto the engine defaults.
func buildEngineConfig(cfg *config.Config) *recommend.Config {
	rc := cfg.Recommend
	out := recommend.DefaultConfig()

	if rc.HiddenSize > 0 {
		out.Network.HiddenSize = rc.HiddenSize
	}
	if rc.LearningRate > 0 {
		out.Network.LearningRate = rc.LearningRate
	}
	if rc.Epochs > 0 {
		out.Network.Epochs = rc.Epochs
	}
	if rc.MaxClusters > 0 {
		out.Clustering.MaxClusters = rc.MaxClusters
	}
	if rc.UsersPerCluster > 0 {
		out.Clustering.UsersPerCluster = rc.UsersPerCluster
	}
	if rc.ClusterRestarts > 0 {
		out.Clustering.Restarts = rc.ClusterRestarts
	}
	if rc.TrainInterval > 0 {
		out.Training.Interval = rc.TrainInterval
	}
	if rc.SampleCap > 0 {
		out.Training.SampleCap = rc.SampleCap
	}
	if rc.RetryBackoff > 0 {
		out.Training.RetryBackoff = rc.RetryBackoff
	}
	out.Training.MinInteractionsForPersonalized = rc.MinInteractions
	if rc.MaxCandidates > 0 {
		out.Limits.MaxCandidates = rc.MaxCandidates
	}
	if rc.DefaultK > 0 {
		out.Limits.DefaultK = rc.DefaultK
	}
	if rc.MaxK > 0 {
		out.Limits.MaxK = rc.MaxK
	}
	if rc.CacheTTL > 0 {
		out.Cache.TTL = rc.CacheTTL
	}
	out.Cache.MaxEntries = rc.CacheMaxEntries
	out.Cache.Enabled = rc.CacheMaxEntries > 0
	if rc.Seed != 0 {
		out.Seed = rc.Seed
	}
	return out
}
