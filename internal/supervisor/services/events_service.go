// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRouterStopped is returned when the event router stops on its own.
var ErrRouterStopped = errors.New("event router stopped unexpectedly")

// EventRouter matches the lifecycle of events.Bus.
type EventRouter interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// EventRouterService runs the interaction event router under supervision.
//
// It adapts the Start/Shutdown lifecycle to suture's Serve pattern:
//  1. Calls Start(ctx), which returns once handlers are subscribed
//  2. Waits for context cancellation, checking the router is still alive
//  3. Calls Shutdown with a fresh timeout context
//
// If the router dies on its own, Serve returns ErrRouterStopped and suture
// restarts it under its backoff policy.
//
//	bus, _ := events.NewBus(cfg.Events, db, logger)
//	tree.AddMessagingService(services.NewEventRouterService(bus, cfg.Events.CloseTimeout))
type EventRouterService struct {
	router          EventRouter
	shutdownTimeout time.Duration
	pollInterval    time.Duration
	name            string
}

// NewEventRouterService wraps router. A non-positive shutdownTimeout
// defaults to 10s.
func NewEventRouterService(router EventRouter, shutdownTimeout time.Duration) *EventRouterService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EventRouterService{
		router:          router,
		shutdownTimeout: shutdownTimeout,
		pollInterval:    time.Second,
		name:            "interaction-router",
	}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	if err := s.router.Start(ctx); err != nil {
		return fmt.Errorf("event router start failed: %w", err)
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// ctx is already canceled.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			s.router.Shutdown(shutdownCtx)
			cancel()
			return ctx.Err()

		case <-ticker.C:
			if !s.router.IsRunning() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
				s.router.Shutdown(shutdownCtx)
				cancel()
				return ErrRouterStopped
			}
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *EventRouterService) String() string {
	return s.name
}
