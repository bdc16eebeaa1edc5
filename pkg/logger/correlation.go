package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

// contextKey is an unexported type for context keys defined by this package.
type contextKey string

// correlationIDKey is the context key under which the correlation ID is stored.
const correlationIDKey contextKey = "correlation_id"

// SetCorrelationID returns a child context carrying the given correlation ID.
// The ID is attached to every log line emitted through WithCorrelationID.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// GetCorrelationID extracts the correlation ID from the context.
// It returns an empty string when no ID has been set.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCorrelationID returns a log entry annotated with the correlation ID
// from the context, or a plain entry when the context carries none.
func WithCorrelationID(ctx context.Context, logger *logrus.Logger) *logrus.Entry {
	if id := GetCorrelationID(ctx); id != "" {
		return logger.WithField("correlation_id", id)
	}
	return logrus.NewEntry(logger)
}
