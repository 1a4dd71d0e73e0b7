package recommendation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mwork/socialgraph/internal/domain/contactgraph"
	"github.com/mwork/socialgraph/internal/pkg/retry"
)

// fanOutWorkers bounds concurrent second-degree lookups
const fanOutWorkers = 8

// Engine runs the tiered traversal over the contact graph. It never reads
// the relationship store.
type Engine struct {
	graph  contactgraph.Graph
	limits Limits
	policy retry.Policy
}

// NewEngine creates a recommendation engine
func NewEngine(graph contactgraph.Graph, limits Limits, maxAttempts int) *Engine {
	return &Engine{
		graph:  graph,
		limits: limits,
		policy: retry.DefaultPolicy(maxAttempts),
	}
}

func isGraphUnavailable(err error) bool {
	return errors.Is(err, contactgraph.ErrGraphUnavailable)
}

// graphErr reports every traversal failure as ErrGraphUnavailable
func graphErr(err error) error {
	if err == nil || isGraphUnavailable(err) {
		return err
	}
	return fmt.Errorf("%w: %v", contactgraph.ErrGraphUnavailable, err)
}

func (e *Engine) neighbors(ctx context.Context, userID uuid.UUID, filter contactgraph.EdgeFilter) ([]contactgraph.Neighbor, error) {
	return retry.Do(ctx, e.policy, isGraphUnavailable, func(ctx context.Context) ([]contactgraph.Neighbor, error) {
		return e.graph.Neighbors(ctx, userID, filter)
	})
}

// Recommend returns Tier 1, Tier 2 and Tier 3 candidates concatenated in
// that order. Each user appears once, in the earliest tier that found it.
func (e *Engine) Recommend(ctx context.Context, userID uuid.UUID) ([]Candidate, error) {
	following, err := retry.Do(ctx, e.policy, isGraphUnavailable, func(ctx context.Context) ([]uuid.UUID, error) {
		return e.graph.Following(ctx, userID)
	})
	if err != nil {
		return nil, graphErr(err)
	}

	excluded := make(map[uuid.UUID]struct{}, len(following)+1)
	excluded[userID] = struct{}{}
	for _, id := range following {
		excluded[id] = struct{}{}
	}

	direct, err := e.neighbors(ctx, userID, contactgraph.NotFollowed())
	if err != nil {
		return nil, graphErr(err)
	}
	tier1 := take(direct, excluded, TierContacts, e.limits.Tier1)

	incoming, err := retry.Do(ctx, e.policy, isGraphUnavailable, func(ctx context.Context) ([]contactgraph.Neighbor, error) {
		return e.graph.IncomingNeighbors(ctx, userID, contactgraph.AllEdges())
	})
	if err != nil {
		return nil, graphErr(err)
	}
	tier2 := take(incoming, excluded, TierReverseContact, e.limits.Tier2)

	tier3, err := e.secondDegree(ctx, userID, excluded)
	if err != nil {
		return nil, graphErr(err)
	}

	observeTier(TierContacts, len(tier1))
	observeTier(TierReverseContact, len(tier2))
	observeTier(TierSecondDegree, len(tier3))

	out := make([]Candidate, 0, len(tier1)+len(tier2)+len(tier3))
	out = append(out, tier1...)
	out = append(out, tier2...)
	return append(out, tier3...), nil
}

// take keeps neighbors not yet excluded, in their given order, up to limit.
// Kept ids are added to excluded so later tiers skip them.
func take(ns []contactgraph.Neighbor, excluded map[uuid.UUID]struct{}, tier Tier, limit int) []Candidate {
	out := make([]Candidate, 0, min(len(ns), limit))
	for _, n := range ns {
		if len(out) == limit {
			break
		}
		if _, skip := excluded[n.UserID]; skip {
			continue
		}
		excluded[n.UserID] = struct{}{}
		out = append(out, Candidate{UserID: n.UserID, Tier: tier, CreatedAt: n.CreatedAt})
	}
	return out
}

type pathCount struct {
	count  int
	latest time.Time
}

// secondDegree counts, for every user reached through one of U's contacts,
// how many distinct contacts lead there. Strongest first, then newest, then id.
func (e *Engine) secondDegree(ctx context.Context, userID uuid.UUID, excluded map[uuid.UUID]struct{}) ([]Candidate, error) {
	firstDegree, err := e.neighbors(ctx, userID, contactgraph.AllEdges())
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(firstDegree))
	via := make([]uuid.UUID, 0, min(len(firstDegree), e.limits.FanOut))
	for _, n := range firstDegree {
		if len(via) == e.limits.FanOut {
			break
		}
		if _, dup := seen[n.UserID]; dup {
			continue
		}
		seen[n.UserID] = struct{}{}
		via = append(via, n.UserID)
	}

	var (
		mu     sync.Mutex
		counts = make(map[uuid.UUID]*pathCount)
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutWorkers)
	for _, contactID := range via {
		g.Go(func() error {
			reached, err := e.neighbors(gCtx, contactID, contactgraph.AllEdges())
			if err != nil {
				return err
			}

			// One path per intermediate contact, however many edges it has
			perContact := make(map[uuid.UUID]time.Time, len(reached))
			for _, n := range reached {
				if n.UserID == userID {
					continue
				}
				if at, ok := perContact[n.UserID]; !ok || n.CreatedAt.After(at) {
					perContact[n.UserID] = n.CreatedAt
				}
			}

			mu.Lock()
			defer mu.Unlock()
			for id, at := range perContact {
				pc, ok := counts[id]
				if !ok {
					pc = &pathCount{}
					counts[id] = pc
				}
				pc.count++
				if at.After(pc.latest) {
					pc.latest = at
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(counts))
	for id, pc := range counts {
		if _, skip := excluded[id]; skip {
			continue
		}
		candidates = append(candidates, Candidate{
			UserID:      id,
			Tier:        TierSecondDegree,
			MutualCount: pc.count,
			CreatedAt:   pc.latest,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.MutualCount != b.MutualCount {
			return a.MutualCount > b.MutualCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return bytes.Compare(a.UserID[:], b.UserID[:]) < 0
	})

	if len(candidates) > e.limits.Tier3 {
		candidates = candidates[:e.limits.Tier3]
	}
	return candidates, nil
}
