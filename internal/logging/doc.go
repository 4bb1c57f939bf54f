// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

// Package logging provides the poller's zerolog-based structured logging.
//
// A process-global logger is configured once from main and accessed through
// package functions, so any component can log without plumbing a logger:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("provider", name).Msg("Polling provider")
//
// Per-run and per-provider fields travel in the context:
//
//	ctx = logging.ContextWithNewRunID(ctx)
//	ctx = logging.ContextWithProvider(ctx, id, name)
//	logging.Ctx(ctx).Warn().Msg("Dropping status change")
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// Logs go to stderr; the CLI prints its per-provider result lines on stdout.
//
// # slog Bridge
//
// SlogHandler adapts zerolog to log/slog for the suture supervisor hook
// (sutureslog) used in serve mode.
//
// # Redaction
//
// Provider URLs and OAuth2 tokens pass through SanitizeURL and SanitizeToken
// before they are logged.
package logging
