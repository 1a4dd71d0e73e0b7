package relationships

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwork/socialgraph/internal/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newTestRouter(userID uuid.UUID, svc Transitions) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
		})
	})
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rr.Body.String())
	}
	return rr, env
}

func TestHandlerFollowLifecycle(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	svc, _, _ := newTestService(fakePrivacy{other: true})
	router := newTestRouter(me, svc)

	rr, env := do(t, router, http.MethodPost, "/users/"+other.String()+"/follow")
	if rr.Code != http.StatusCreated {
		t.Fatalf("follow: expected 201, got %d", rr.Code)
	}
	var follow FollowResponse
	if err := json.Unmarshal(env.Data, &follow); err != nil {
		t.Fatalf("decode follow: %v", err)
	}
	if follow.Status != FollowStatusPending {
		t.Fatalf("expected pending, got %s", follow.Status)
	}

	rr, env = do(t, router, http.MethodPost, "/users/"+other.String()+"/follow")
	if rr.Code != http.StatusConflict || env.Error == nil || env.Error.Code != "ALREADY_EXISTS" {
		t.Fatalf("duplicate follow: expected 409 ALREADY_EXISTS, got %d %+v", rr.Code, env.Error)
	}

	rr, _ = do(t, router, http.MethodDelete, "/users/"+other.String()+"/follow")
	if rr.Code != http.StatusConflict {
		t.Fatalf("unfollow pending: expected 409, got %d", rr.Code)
	}

	rr, _ = do(t, router, http.MethodDelete, "/users/"+other.String()+"/follow-request")
	if rr.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", rr.Code)
	}

	rr, env = do(t, router, http.MethodPost, "/follow-requests/"+other.String()+"/accept")
	if rr.Code != http.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("accept missing: expected 404, got %d", rr.Code)
	}
}

func TestHandlerAcceptAsRecipient(t *testing.T) {
	me, requester := uuid.New(), uuid.New()
	svc, _, _ := newTestService(fakePrivacy{me: true})
	if _, err := svc.SendFollowRequest(context.Background(), requester, me); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	router := newTestRouter(me, svc)
	rr, _ := do(t, router, http.MethodPost, "/follow-requests/"+requester.String()+"/accept")
	if rr.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d", rr.Code)
	}

	rr, env := do(t, router, http.MethodGet, "/users/"+requester.String()+"/relationship")
	if rr.Code != http.StatusOK {
		t.Fatalf("relationship: expected 200, got %d", rr.Code)
	}
	var rel RelationshipResponse
	if err := json.Unmarshal(env.Data, &rel); err != nil {
		t.Fatalf("decode relationship: %v", err)
	}
	if rel.Incoming != FollowStatusAccepted || rel.Outgoing != FollowStatusNone {
		t.Fatalf("unexpected relationship %+v", rel)
	}
}

func TestHandlerBlockFlow(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	svc, _, _ := newTestService(fakePrivacy{})
	router := newTestRouter(me, svc)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"block", http.MethodPost, "/users/" + other.String() + "/block", http.StatusOK},
		{"block again", http.MethodPost, "/users/" + other.String() + "/block", http.StatusOK},
		{"follow blocked", http.MethodPost, "/users/" + other.String() + "/follow", http.StatusConflict},
		{"unblock", http.MethodDelete, "/users/" + other.String() + "/block", http.StatusOK},
		{"unblock again", http.MethodDelete, "/users/" + other.String() + "/block", http.StatusNotFound},
		{"bad id", http.MethodPost, "/users/not-a-uuid/block", http.StatusBadRequest},
		{"self", http.MethodPost, "/users/" + me.String() + "/block", http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := do(t, router, tt.method, tt.path)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
		})
	}
}

func TestHandlerTransientStoreReturns503(t *testing.T) {
	me := uuid.New()
	store := newFakeStore()
	store.failTimes = 100
	svc := NewService(store, fakePrivacy{}, &recordingDispatcher{}, Config{
		TxMaxAttempts:    2,
		TxTimeout:        time.Second,
		QueryMaxAttempts: 1,
	})

	rr, env := do(t, newTestRouter(me, svc), http.MethodPost, "/users/"+uuid.NewString()+"/block")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if env.Error == nil || env.Error.Code != "TEMPORARILY_UNAVAILABLE" {
		t.Fatalf("unexpected error body %+v", env.Error)
	}
}
