package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	queryKey     contextKey = "query"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithQuery adds the search query to the context.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey, query)
}

// QueryFromContext retrieves the search query from context.
// Returns empty string if not present.
func QueryFromContext(ctx context.Context) string {
	if v := ctx.Value(queryKey); v != nil {
		if q, ok := v.(string); ok {
			return q
		}
	}
	return ""
}
