package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mwork/socialgraph/internal/pkg/logger"
)

const RequestIDKey contextKey = "request_id"

// RequestID adds a unique request ID to each request and attaches a
// request-scoped logger carrying it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		reqLogger := log.With().Str("request_id", requestID).Logger()
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logger.WithContext(ctx, &reqLogger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return "unknown"
}
