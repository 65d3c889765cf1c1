package logging

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestIDField is the logrus field rendered in the request-id column.
const RequestIDField = "request_id"

type requestIDKey struct{}

// NewRequestID returns a fresh identifier for one operation (a login attempt, a refetch).
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID returns a new context with the request ID attached.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Entry returns a log entry carrying the context's request ID, if any.
func Entry(ctx context.Context) *log.Entry {
	entry := log.NewEntry(log.StandardLogger())
	if id := GetRequestID(ctx); id != "" {
		entry = entry.WithField(RequestIDField, id)
	}
	return entry
}
