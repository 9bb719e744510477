// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package database

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/comercio-recommender/internal/config"
	"github.com/tomtom215/comercio-recommender/internal/logging"
	"github.com/tomtom215/comercio-recommender/internal/metrics"
	"github.com/tomtom215/comercio-recommender/internal/recommend"
)

// BreakerName labels the data-boundary circuit breaker in metrics.
const BreakerName = "recommend-data"

// BreakerProvider wraps a DataProvider with circuit breaker protection.
// While the circuit is open every read fails fast with
// recommend.ErrDataUnavailable, which sends requests to the popularity
// fallback and fails training at the fetch stage.
//
// Absent rows (nil, nil) count as successes.
type BreakerProvider struct {
	next recommend.DataProvider
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerProvider creates a circuit breaker around next.
// Defaults: 3 half-open probes, 1 minute window, 30 second open timeout,
// opens at a 60% failure rate over at least 10 requests.
func NewBreakerProvider(next recommend.DataProvider, cfg config.BreakerConfig) *BreakerProvider {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.6
	}
	name := BreakerName

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		// Context cancellation is the caller giving up, not the source failing.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerProvider{next: next, cb: cb, name: name}
}

// State returns the current breaker state name.
func (b *BreakerProvider) State() string {
	return stateToString(b.cb.State())
}

// execute runs fn through the breaker and maps rejections to ErrDataUnavailable.
func (b *BreakerProvider) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, fmt.Errorf("%w: %w", recommend.ErrDataUnavailable, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		counts := b.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// castResult type-asserts a breaker result. A nil result is returned as the zero value.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil || result == nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// FetchUserAggregates reads user aggregates with circuit breaker protection.
func (b *BreakerProvider) FetchUserAggregates(ctx context.Context, userID int64) (*recommend.UserAggregates, error) {
	return castResult[*recommend.UserAggregates](b.execute(func() (any, error) {
		return b.next.FetchUserAggregates(ctx, userID)
	}))
}

// FetchProductRow reads a product row with circuit breaker protection.
func (b *BreakerProvider) FetchProductRow(ctx context.Context, productID int64) (*recommend.ProductRow, error) {
	return castResult[*recommend.ProductRow](b.execute(func() (any, error) {
		return b.next.FetchProductRow(ctx, productID)
	}))
}

// FetchCandidateProducts reads candidates with circuit breaker protection.
func (b *BreakerProvider) FetchCandidateProducts(ctx context.Context, userID int64) ([]recommend.CandidateProduct, error) {
	return castResult[[]recommend.CandidateProduct](b.execute(func() (any, error) {
		return b.next.FetchCandidateProducts(ctx, userID)
	}))
}

// FetchTrainingSnapshot reads the training snapshot with circuit breaker protection.
func (b *BreakerProvider) FetchTrainingSnapshot(ctx context.Context, limit int) ([]recommend.TrainingRow, error) {
	return castResult[[]recommend.TrainingRow](b.execute(func() (any, error) {
		return b.next.FetchTrainingSnapshot(ctx, limit)
	}))
}

// RecordPopularityCounts reads popularity counts with circuit breaker protection.
func (b *BreakerProvider) RecordPopularityCounts(ctx context.Context, limit int) ([]recommend.PopularProduct, error) {
	return castResult[[]recommend.PopularProduct](b.execute(func() (any, error) {
		return b.next.RecordPopularityCounts(ctx, limit)
	}))
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

var _ recommend.DataProvider = (*BreakerProvider)(nil)
