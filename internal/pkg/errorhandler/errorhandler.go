package errorhandler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mwork/socialgraph/internal/middleware"
	"github.com/mwork/socialgraph/internal/pkg/response"
)

// HandleError logs an unexpected error with request context and sends a
// generic error body. Internal details never reach the client.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := log.Error().
		Str("request_id", middleware.GetRequestID(ctx)).
		Str("error_code", code).
		Int("status_code", status)

	if userID := middleware.GetUserID(ctx); userID != uuid.Nil {
		event.Str("user_id", userID.String())
	}
	if err != nil {
		event.Err(err)
	}

	event.Msg(message)

	response.Error(w, status, code, message)
}

// Internal is HandleError for 500 responses.
func Internal(ctx context.Context, w http.ResponseWriter, err error) {
	HandleError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
}

// LogDatabaseError logs database errors with context
func LogDatabaseError(ctx context.Context, operation string, err error) {
	log.Error().
		Str("request_id", middleware.GetRequestID(ctx)).
		Str("operation", operation).
		Err(err).
		Msg("Database error")
}
