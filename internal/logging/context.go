// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package logging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Context keys for logging.
type contextKey string

const (
	// correlationIDKey identifies one analysis run.
	correlationIDKey contextKey = "correlation_id"

	// phaseKey names the pipeline phase being executed.
	phaseKey contextKey = "phase"

	// keepAliveKey carries the keep-alive of the simulation being run.
	keepAliveKey contextKey = "keep_alive"
)

// GenerateCorrelationID creates a new unique correlation ID.
// Returns the first 8 characters of a UUID for readability.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithCorrelationID returns a new context with the given correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID returns a context with a newly generated correlation ID.
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext retrieves the correlation ID from context.
// Returns empty string if not present.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithPhase returns a context tagged with a pipeline phase.
func ContextWithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext retrieves the pipeline phase from context.
func PhaseFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(phaseKey).(string); ok {
		return p
	}
	return ""
}

// ContextWithKeepAlive returns a context tagged with a simulation keep-alive.
func ContextWithKeepAlive(ctx context.Context, keepAlive time.Duration) context.Context {
	return context.WithValue(ctx, keepAliveKey, keepAlive)
}

// KeepAliveFromContext retrieves the simulation keep-alive from context.
func KeepAliveFromContext(ctx context.Context) (time.Duration, bool) {
	ka, ok := ctx.Value(keepAliveKey).(time.Duration)
	return ka, ok
}

// Ctx returns the global logger with context values (correlation_id, phase,
// keep_alive) added.
//
//	logging.Ctx(ctx).Info().Msg("Simulation finished")
//	// Output: {"level":"info","correlation_id":"abc12345","phase":"simulate","keep_alive":"3h0m0s",...}
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := CtxWith(ctx).Logger()
	return &logger
}

// CtxWith returns a logger context builder with context values pre-populated.
//
//	logger := logging.CtxWith(ctx).Str("asset_id", id).Logger()
func CtxWith(ctx context.Context) zerolog.Context {
	logCtx := with()

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}
	if phase := PhaseFromContext(ctx); phase != "" {
		logCtx = logCtx.Str("phase", phase)
	}
	if ka, ok := KeepAliveFromContext(ctx); ok {
		logCtx = logCtx.Str("keep_alive", ka.String())
	}

	return logCtx
}

// CtxDebug starts a debug level message with context fields.
func CtxDebug(ctx context.Context) *zerolog.Event {
	return Ctx(ctx).Debug()
}

// CtxInfo starts an info level message with context fields.
func CtxInfo(ctx context.Context) *zerolog.Event {
	return Ctx(ctx).Info()
}

// CtxWarn starts a warn level message with context fields.
func CtxWarn(ctx context.Context) *zerolog.Event {
	return Ctx(ctx).Warn()
}

// CtxErr starts an error level message with context fields and the error.
func CtxErr(ctx context.Context, err error) *zerolog.Event {
	return Ctx(ctx).Err(err)
}

// WithComponent creates a child logger with a component field.
//
//	log := logging.WithComponent("snapshot")
func WithComponent(component string) zerolog.Logger {
	return with().Str("component", component).Logger()
}
