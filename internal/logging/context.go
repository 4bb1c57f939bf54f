// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	providerKey contextKey = "provider"
	loggerKey   contextKey = "logger"
)

// ProviderFields identifies the provider a log line is about.
type ProviderFields struct {
	ID   string
	Name string
}

// GenerateRunID creates a short identifier for one poller run.
func GenerateRunID() string {
	return uuid.New().String()[:8]
}

// ContextWithRunID returns a context carrying the given run id.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// ContextWithNewRunID returns a context carrying a freshly generated run id.
func ContextWithNewRunID(ctx context.Context) context.Context {
	return ContextWithRunID(ctx, GenerateRunID())
}

// RunIDFromContext returns the run id, or "" if none is set.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithProvider attaches the provider being polled to ctx.
func ContextWithProvider(ctx context.Context, id, name string) context.Context {
	return context.WithValue(ctx, providerKey, ProviderFields{ID: id, Name: name})
}

// ProviderFromContext returns the provider attached to ctx, if any.
func ProviderFromContext(ctx context.Context) (ProviderFields, bool) {
	p, ok := ctx.Value(providerKey).(ProviderFields)
	return p, ok
}

// ContextWithLogger stores a logger in the context.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the logger stored in ctx, or the global logger.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns a logger carrying the run and provider fields found in ctx.
//
//	logging.Ctx(ctx).Warn().Str("device_id", id).Msg("Dropping status change")
//	// {"level":"warn","run_id":"1f0c2a9b","provider_id":"...","provider":"Lime",...}
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := LoggerFromContext(ctx)
	logCtx := logger.With()

	if runID := RunIDFromContext(ctx); runID != "" {
		logCtx = logCtx.Str("run_id", runID)
	}
	if p, ok := ProviderFromContext(ctx); ok {
		logCtx = logCtx.Str("provider_id", p.ID).Str("provider", p.Name)
	}

	l := logCtx.Logger()
	return &l
}
