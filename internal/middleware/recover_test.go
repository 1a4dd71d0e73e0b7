package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRecoverReturns500(t *testing.T) {
	r := chi.NewRouter()
	r.Use(RequestID, Logger, Recover)
	r.Get("/users/{id}/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/42/boom", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header on recovered response")
	}
}

func TestRecoverRepanicsAbortHandler(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRoutePatternUsesChiPattern(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/users/{id}/followers", func(w http.ResponseWriter, req *http.Request) {
		got = routePattern(req)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/abc/followers", nil))

	if got != "/users/{id}/followers" {
		t.Fatalf("expected route pattern, got %q", got)
	}
}
