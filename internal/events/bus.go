// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/tomtom215/comercio-recommender/internal/config"
	"github.com/tomtom215/comercio-recommender/internal/logging"
	"github.com/tomtom215/comercio-recommender/internal/metrics"
	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// Handler names registered on the router.
const (
	PersistHandlerName = "persist-interactions"
	PoisonHandlerName  = "poisoned-interactions"
)

// ErrBusRunning is returned by Start when the router is already running.
var ErrBusRunning = errors.New("event bus already running")

// Bus is the in-process interaction pipeline: a GoChannel pub/sub, a
// publisher used by the engine, and a router whose handler persists each
// interaction through the InteractionStore.
//
// Handler middleware, outermost first:
//  1. PoisonQueue - interactions that still fail after retries are moved to
//     the poison topic and acknowledged
//  2. Retry - exponential backoff for transient store failures
//  3. Recoverer - handler panics become errors
type Bus struct {
	cfg      config.EventsConfig
	store    recommend.InteractionStore
	logger   zerolog.Logger
	wmLogger watermill.LoggerAdapter

	pubsub    *gochannel.GoChannel
	publisher *Publisher

	mu      sync.Mutex
	router  *message.Router
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

// NewBus creates the pub/sub and publisher. The router is built by Start.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBus(cfg config.EventsConfig, store recommend.InteractionStore, logger zerolog.Logger) (*Bus, error) {
	if store == nil {
		return nil, errors.New("interaction store is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("events topic is required")
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}

	logger = logger.With().Str("component", "events").Logger()
	wmLogger := logging.NewWatermillAdapter(logger)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
		Persistent:          false,
	}, wmLogger)

	return &Bus{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		wmLogger:  wmLogger,
		pubsub:    pubsub,
		publisher: NewPublisher(pubsub, cfg.Topic),
	}, nil
}

// Publisher returns the publisher the engine hands interactions to.
func (b *Bus) Publisher() *Publisher {
	return b.publisher
}

// PoisonTopic is where interactions go after exhausting retries.
func (b *Bus) PoisonTopic() string {
	return b.cfg.Topic + ".poison"
}

// Start builds a router and runs it in the background. It returns once the
// handlers are subscribed, so no interaction published afterwards is lost.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running.Load() {
		return ErrBusRunning
	}

	router, err := b.newRouter()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer b.running.Store(false)
		if err := router.Run(runCtx); err != nil {
			b.logger.Error().Err(err).Msg("Interaction router stopped with error")
		}
	}()

	select {
	case <-router.Running():
	case <-done:
		cancel()
		return errors.New("interaction router exited during startup")
	case <-ctx.Done():
		cancel()
		_ = router.Close()
		return ctx.Err()
	}

	b.router = router
	b.cancel = cancel
	b.done = done
	b.running.Store(true)
	b.logger.Info().Str("topic", b.cfg.Topic).Msg("Interaction router started")
	return nil
}

// Shutdown stops the router, waiting for in-flight interactions up to
// CloseTimeout or ctx, whichever is shorter. The pub/sub stays open so the
// bus can be started again.
func (b *Bus) Shutdown(ctx context.Context) {
	b.mu.Lock()
	router, cancel, done := b.router, b.cancel, b.done
	b.router, b.cancel, b.done = nil, nil, nil
	b.mu.Unlock()

	if router == nil {
		return
	}
	if err := router.Close(); err != nil {
		b.logger.Warn().Err(err).Msg("Interaction router close error")
	}
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn().Msg("Interaction router did not stop before shutdown deadline")
	}
	b.logger.Info().Msg("Interaction router stopped")
}

// IsRunning reports whether the router is processing messages.
func (b *Bus) IsRunning() bool {
	return b.running.Load()
}

// Close shuts the router down and closes the pub/sub.
func (b *Bus) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.CloseTimeout)
	defer cancel()
	b.Shutdown(ctx)
	_ = b.publisher.Close()
	return b.pubsub.Close()
}

func (b *Bus) newRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: b.cfg.CloseTimeout}, b.wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	poisonQueue, err := middleware.PoisonQueue(b.pubsub, b.PoisonTopic())
	if err != nil {
		return nil, fmt.Errorf("create poison queue middleware: %w", err)
	}
	router.AddMiddleware(poisonQueue)

	if b.cfg.RetryCount > 0 {
		retry := middleware.Retry{
			MaxRetries:      b.cfg.RetryCount,
			InitialInterval: b.cfg.RetryInterval,
			MaxInterval:     10 * b.cfg.RetryInterval,
			Multiplier:      2.0,
			Logger:          b.wmLogger,
		}
		router.AddMiddleware(retry.Middleware)
	}
	router.AddMiddleware(middleware.Recoverer)

	sub := keepOpenSubscriber{b.pubsub}
	router.AddConsumerHandler(PersistHandlerName, b.cfg.Topic, sub, b.persist)
	router.AddConsumerHandler(PoisonHandlerName, b.PoisonTopic(), sub, b.poisoned)
	return router, nil
}

// persist stores one interaction. Undecodable payloads are dropped rather
// than retried.
func (b *Bus) persist(msg *message.Message) error {
	in, err := DecodeInteraction(msg.Payload)
	if err != nil {
		metrics.RecordInteractionEvent("decode", err)
		b.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable interaction")
		return nil
	}

	ctx, cancel := context.WithTimeout(msg.Context(), b.cfg.PersistTimeout)
	defer cancel()

	err = b.store.RecordInteraction(ctx, in)
	metrics.RecordInteractionEvent("persist", err)
	if err != nil {
		return fmt.Errorf("persist interaction %s: %w", in.EventID, err)
	}
	return nil
}

// poisoned records interactions that could not be persisted.
func (b *Bus) poisoned(msg *message.Message) error {
	metrics.RecordInteractionEvent("poison", errors.New(msg.Metadata.Get(middleware.ReasonForPoisonedKey)))
	b.logger.Error().
		Str("message_uuid", msg.UUID).
		Str(MetadataUserID, msg.Metadata.Get(MetadataUserID)).
		Str(MetadataActionType, msg.Metadata.Get(MetadataActionType)).
		Str("reason", msg.Metadata.Get(middleware.ReasonForPoisonedKey)).
		Msg("Interaction dropped after retries")
	return nil
}

// keepOpenSubscriber stops the router from closing the shared pub/sub when
// it shuts down; the Bus closes it in Close.
type keepOpenSubscriber struct {
	message.Subscriber
}

func (keepOpenSubscriber) Close() error { return nil }
