package middleware

import (
	"net/http"
	"time"

	"github.com/mwork/socialgraph/internal/pkg/logger"
)

// Logger logs every request and records it in the HTTP metrics. 5xx
// responses log at warn so 503s from a struggling store stand out.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		took := time.Since(start)
		observeRequest(r, wrapped.statusCode, took.Seconds())

		l := logger.FromContext(r.Context())
		event := l.Info()
		if wrapped.statusCode >= http.StatusInternalServerError {
			event = l.Warn()
		}

		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", routePattern(r)).
			Str("query", r.URL.RawQuery).
			Int("status", wrapped.statusCode).
			Dur("duration", took).
			Str("ip", r.RemoteAddr).
			Msg("HTTP Request")
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
