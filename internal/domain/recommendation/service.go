package recommendation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mwork/socialgraph/internal/pkg/logger"
)

// Recommender produces raw tiered candidates
type Recommender interface {
	Recommend(ctx context.Context, userID uuid.UUID) ([]Candidate, error)
}

// BlockLookup returns the users with a block in either direction
type BlockLookup interface {
	BlockedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Service serves best-effort recommendations. Failures degrade to an empty
// list and are never returned to the caller.
type Service struct {
	engine  Recommender
	blocks  BlockLookup
	timeout time.Duration
	group   singleflight.Group
}

// NewService creates recommendation service
func NewService(engine Recommender, blocks BlockLookup, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{engine: engine, blocks: blocks, timeout: timeout}
}

// GetRecommendations returns candidates for userID with blocked users
// removed. Concurrent calls for the same user share one traversal.
func (s *Service) GetRecommendations(ctx context.Context, userID uuid.UUID) []Candidate {
	start := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(start).Seconds())
	}()

	ch := s.group.DoChan(userID.String(), func() (any, error) {
		// Shared by every waiter, so it must not die with the first caller
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.compute(workCtx, userID)
	})

	var (
		result singleflight.Result
		l      = logger.FromContext(ctx)
	)
	select {
	case result = <-ch:
	case <-ctx.Done():
		requestsTotal.WithLabelValues("cancelled").Inc()
		return []Candidate{}
	}

	if result.Err != nil {
		l.Warn().Err(result.Err).Str("user_id", userID.String()).Msg("Recommendations degraded to empty list")
		requestsTotal.WithLabelValues("degraded").Inc()
		return []Candidate{}
	}

	requestsTotal.WithLabelValues("ok").Inc()
	shared := result.Val.([]Candidate)
	out := make([]Candidate, len(shared))
	copy(out, shared)
	return out
}

func (s *Service) compute(ctx context.Context, userID uuid.UUID) ([]Candidate, error) {
	candidates, err := s.engine.Recommend(ctx, userID)
	if err != nil {
		return nil, err
	}

	blocked, err := s.blocks.BlockedUserIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(blocked) == 0 {
		return candidates, nil
	}

	hidden := make(map[uuid.UUID]struct{}, len(blocked))
	for _, id := range blocked {
		hidden[id] = struct{}{}
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, skip := hidden[c.UserID]; !skip {
			out = append(out, c)
		}
	}
	return out, nil
}
