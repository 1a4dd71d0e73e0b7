package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mwork/socialgraph/internal/pkg/jwt"
)

func TestAuthMiddlewareAllowsValidAccessToken(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Minute)
	userID := uuid.New()
	token, err := jwtSvc.GenerateAccessToken(userID, "user", false)
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	var seen uuid.UUID
	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if seen != userID {
		t.Fatalf("expected user %s in context, got %s", userID, seen)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Minute)
	expiredSvc := jwt.NewService("secret", -time.Minute)
	otherSvc := jwt.NewService("other-secret", time.Minute)

	expired, _ := expiredSvc.GenerateAccessToken(uuid.New(), "user", false)
	foreign, _ := otherSvc.GenerateAccessToken(uuid.New(), "user", false)
	banned, _ := jwtSvc.GenerateAccessToken(uuid.New(), "user", true)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token abc", want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, want: http.StatusUnauthorized},
		{name: "foreign signature", header: "Bearer " + foreign, want: http.StatusUnauthorized},
		{name: "banned", header: "Bearer " + banned, want: http.StatusForbidden},
	}

	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != "req-123" {
		t.Fatalf("expected request id in context, got %q", seen)
	}
	if w.Header().Get("X-Request-ID") != "req-123" {
		t.Fatalf("expected request id echoed in header")
	}
}

func TestAuthMiddlewareStoresOnlyUserID(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Minute)
	token, err := jwtSvc.GenerateAccessToken(uuid.New(), "admin", false)
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	var role interface{}
	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role = r.Context().Value(contextKey("role"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protected.ServeHTTP(httptest.NewRecorder(), req)

	if role != nil {
		t.Fatalf("expected no role in context, got %v", role)
	}
}
