package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	mergeIDKey
	assetKey
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}

	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}

	return Default()
}

// Ctx is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithMergeID tags every log line of one merge run so interleaved
// pull and push output can be told apart.
func WithMergeID(ctx context.Context, mergeID string) context.Context {
	ctx = context.WithValue(ctx, mergeIDKey, mergeID)
	return WithField(ctx, "merge_id", mergeID)
}

// MergeID extracts the merge ID from context.
func MergeID(ctx context.Context) string {
	if id, ok := ctx.Value(mergeIDKey).(string); ok {
		return id
	}
	return ""
}

// WithFields adds structured fields to the logger in the context.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	logger := FromContext(ctx)
	logCtx := logger.With()

	for key, value := range fields {
		logCtx = addField(logCtx, key, value)
	}

	newLogger := logCtx.Logger()
	return WithLogger(ctx, &newLogger)
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := FromContext(ctx)
	newLogger := addField(logger.With(), key, value).Logger()
	return WithLogger(ctx, &newLogger)
}

// WithAsset adds the asset name to the logger. It is a no-op when ctx
// already carries the same asset.
func WithAsset(ctx context.Context, asset string) context.Context {
	if Asset(ctx) == asset {
		return ctx
	}
	ctx = context.WithValue(ctx, assetKey, asset)
	return WithField(ctx, "asset", asset)
}

// Asset extracts the asset name from context.
func Asset(ctx context.Context) string {
	if name, ok := ctx.Value(assetKey).(string); ok {
		return name
	}
	return ""
}

// WithDirection adds the merge direction (pull or push) to the logger.
func WithDirection(ctx context.Context, direction string) context.Context {
	return WithField(ctx, "direction", direction)
}

// WithKind adds a transfer data kind to the logger.
func WithKind(ctx context.Context, kind string) context.Context {
	return WithField(ctx, "kind", kind)
}

// WithOperation adds operation context to the logger.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}

// WithError adds an error to the context logger.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return WithField(ctx, "error", err)
}
