package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwork/socialgraph/internal/domain/contactgraph"
	"github.com/mwork/socialgraph/internal/middleware"
)

type stubEngine struct {
	calls   atomic.Int32
	release chan struct{}
	out     []Candidate
	err     error
}

func (e *stubEngine) Recommend(ctx context.Context, userID uuid.UUID) ([]Candidate, error) {
	e.calls.Add(1)
	if e.release != nil {
		<-e.release
	}
	return e.out, e.err
}

type stubBlocks struct {
	ids []uuid.UUID
	err error
}

func (b stubBlocks) BlockedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return b.ids, b.err
}

func TestServiceFiltersBlockedUsers(t *testing.T) {
	keep, blocked := uuid.New(), uuid.New()
	engine := &stubEngine{out: []Candidate{
		{UserID: blocked, Tier: TierContacts},
		{UserID: keep, Tier: TierReverseContact},
	}}
	svc := NewService(engine, stubBlocks{ids: []uuid.UUID{blocked}}, time.Second)

	got := svc.GetRecommendations(context.Background(), uuid.New())
	require.Len(t, got, 1)
	assert.Equal(t, keep, got[0].UserID)
}

func TestServiceDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name   string
		engine *stubEngine
		blocks stubBlocks
	}{
		{"graph unavailable", &stubEngine{err: contactgraph.ErrGraphUnavailable}, stubBlocks{}},
		{"block lookup fails", &stubEngine{out: []Candidate{{UserID: uuid.New()}}}, stubBlocks{err: errors.New("db down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewService(tt.engine, tt.blocks, time.Second).GetRecommendations(context.Background(), uuid.New())
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestServiceSharesConcurrentTraversals(t *testing.T) {
	engine := &stubEngine{release: make(chan struct{}), out: []Candidate{{UserID: uuid.New(), Tier: TierContacts}}}
	svc := NewService(engine, stubBlocks{}, time.Second)
	user := uuid.New()

	const callers = 5
	var wg sync.WaitGroup
	results := make([][]Candidate, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.GetRecommendations(context.Background(), user)
		}(i)
	}

	// Let every caller join the in-flight traversal before it finishes
	assert.Eventually(t, func() bool { return engine.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(engine.release)
	wg.Wait()

	assert.EqualValues(t, 1, engine.calls.Load())
	for _, r := range results {
		assert.Len(t, r, 1)
	}
}

func TestServiceCallerCancellation(t *testing.T) {
	engine := &stubEngine{release: make(chan struct{})}
	defer close(engine.release)
	svc := NewService(engine, stubBlocks{}, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	got := svc.GetRecommendations(ctx, uuid.New())
	assert.Empty(t, got)
}

func TestHandlerAlwaysReturns200(t *testing.T) {
	me := uuid.New()
	svc := NewService(&stubEngine{err: contactgraph.ErrGraphUnavailable}, stubBlocks{}, time.Second)

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/recommendations", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), me))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Success bool                 `json:"success"`
		Data    []*CandidateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotNil(t, body.Data)
	assert.Empty(t, body.Data)
}
