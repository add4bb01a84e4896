package logging

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	serialKey    contextKey = "serial"
)

// WithRequestID adds a dispatch request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithSerial adds the targeted device serial to the context.
func WithSerial(ctx context.Context, serial string) context.Context {
	return context.WithValue(ctx, serialKey, serial)
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetSerial retrieves the device serial from the context.
// Returns empty string if not present.
func GetSerial(ctx context.Context) string {
	if s, ok := ctx.Value(serialKey).(string); ok {
		return s
	}
	return ""
}
