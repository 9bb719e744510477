// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

// Package logging provides centralized zerolog-based structured logging.
//
// # Quick Start
//
//	import "github.com/tomtom215/comercio-recommender/internal/logging"
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})
//
//	logging.Info().Int64("version", snap.Version).Msg("Model published")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Serving popularity fallback")
//
// # Configuration
//
// LOG_LEVEL, LOG_FORMAT and LOG_CALLER are read by the config package and
// passed to Init.
//
// # Context
//
// HTTP middleware stores a request ID in the request context and each
// training cycle carries a short correlation ID. Ctx(ctx) returns a logger
// with both fields attached.
//
// # Adapters
//
//   - SlogHandler bridges log/slog to zerolog for sutureslog
//   - WatermillAdapter implements watermill.LoggerAdapter for the event bus
//
// Always terminate log chains with .Msg() or .Send(); an unterminated
// event is never written.
package logging
