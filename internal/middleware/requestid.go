package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// RequestIDContextKey is the key for storing the request ID in context
const RequestIDContextKey ContextKey = "requestID"

// RequestIDHeader carries the correlation id in both directions
const RequestIDHeader = "X-Request-Id"

// RequestID reuses the caller's request id or generates one
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, rid)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestIDFromContext retrieves the request id from context
func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	rid, ok := ctx.Value(RequestIDContextKey).(string)
	return rid, ok
}
