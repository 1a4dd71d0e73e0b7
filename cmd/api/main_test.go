package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwork/socialgraph/internal/config"
	"github.com/mwork/socialgraph/internal/middleware"
	"github.com/mwork/socialgraph/internal/pkg/jwt"
)

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(r chi.Router) {
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(middleware.GetUserID(r.Context()).String()))
	})
}

func TestRouter(t *testing.T) {
	jwtService := jwt.NewService("test-secret", time.Minute)
	r := newRouter(&config.Config{AllowedOrigins: []string{"http://localhost:3000"}}, jwtService, pingRoutes{})

	userID := uuid.New()
	token, err := jwtService.GenerateAccessToken(userID, "user", false)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	t.Run("health is public", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("metrics is public", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("api requires token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rr.Code)
		}
	})

	t.Run("api with token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		if rr.Body.String() != userID.String() {
			t.Fatalf("expected user %s, got %s", userID, rr.Body.String())
		}
	})
}
