package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mwork/socialgraph/internal/pkg/jwt"
	"github.com/mwork/socialgraph/internal/pkg/response"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// TokenValidator validates bearer access tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// Auth returns middleware that validates JWT
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := validator.ValidateAccessToken(parts[1])
			if err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			if claims.IsBanned {
				response.Forbidden(w, "Your account has been banned")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// WithUserID stores the authenticated user ID in ctx
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
