// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

// Package logging provides the zerolog-based structured logger used across
// Covera.
//
// A single global logger is configured once at startup with Init and then
// used through the package-level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Version: version})
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
//	logging.Error().Err(err).Msg("Training failed")
//
// Every line carries "service":"covera" and, when configured, the build
// version. Components derive child loggers with a component field:
//
//	logger := logging.WithComponent("recommend")
//
// # Context
//
// HTTP middleware stores a request ID in the request context. Ctx returns
// the global logger with it attached:
//
//	logging.Ctx(ctx).Warn().Msg("Data integrity violation")
//
// # slog
//
// NewSlogLogger adapts the global logger to *slog.Logger for libraries such
// as sutureslog that expect the standard library interface.
//
// Always terminate event chains with Msg or Send; an unterminated event is
// never written.
package logging
