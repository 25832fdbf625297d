package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// CorrelationIDKey is the context key carrying the correlation ID of a scan run.
const CorrelationIDKey contextKey = "correlation_id"

// WithCorrelationID returns a context carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// EnsureCorrelationID returns ctx unchanged when it already carries a
// correlation ID, otherwise a child context with a fresh one.
func EnsureCorrelationID(ctx context.Context) context.Context {
	if CorrelationIDFromContext(ctx) != "" {
		return ctx
	}
	return WithCorrelationID(ctx, uuid.New().String())
}

// CorrelationIDFromContext returns the correlation ID stored in ctx, if any.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// getOrGenerateCorrelationID gets correlation ID from context or generates a new one
func getOrGenerateCorrelationID(ctx context.Context) string {
	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		return correlationID
	}
	return uuid.New().String()
}
