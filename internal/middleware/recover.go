package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/mwork/socialgraph/internal/pkg/logger"
	"github.com/mwork/socialgraph/internal/pkg/response"
)

// Recover turns a handler panic into a 500. A panic inside a transition
// callback has already rolled its transaction back by the time it gets here.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// Let the server abort the connection as it would without us
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			panicsTotal.Inc()
			logger.FromContext(r.Context()).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("Panic recovered")

			response.InternalError(w)
		}()

		next.ServeHTTP(w, r)
	})
}
