package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mwork/socialgraph/internal/pkg/database"
	"github.com/mwork/socialgraph/internal/pkg/retry"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// maxRefillRounds bounds how many extra batches one page may scan when
	// block filtering hides rows.
	maxRefillRounds = 5
)

// BlockLookup returns the users with a block in either direction
type BlockLookup interface {
	BlockedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Service serves relationship lists page by page
type Service struct {
	repo      Repository
	blocks    BlockLookup
	policy    retry.Policy
	retryable func(error) bool
}

// NewService creates pagination service
func NewService(repo Repository, blocks BlockLookup, maxAttempts int) *Service {
	return &Service{
		repo:      repo,
		blocks:    blocks,
		policy:    retry.DefaultPolicy(maxAttempts),
		retryable: database.IsRetryable,
	}
}

// Request describes one page fetch
type Request struct {
	Kind      ListKind
	SubjectID uuid.UUID
	ViewerID  uuid.UUID
	Cursor    string
	PageSize  int
}

// Paginate returns one page of the subject's list as seen by the viewer.
// When viewer and subject differ, users with a block against the viewer are
// dropped and the page is refilled from further rows.
func (s *Service) Paginate(ctx context.Context, req Request) (*Page, error) {
	if !req.Kind.Valid() {
		return nil, ErrUnknownList
	}
	if req.Kind.OwnerOnly() && req.ViewerID != req.SubjectID {
		return nil, ErrForbidden
	}

	after, err := DecodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	start := time.Now()
	defer func() {
		pageDuration.WithLabelValues(string(req.Kind)).Observe(time.Since(start).Seconds())
	}()

	hidden := map[uuid.UUID]struct{}{}
	if req.ViewerID != req.SubjectID {
		ids, err := s.blocks.BlockedUserIDs(ctx, req.ViewerID)
		if err != nil {
			// Rows must never leak past a block, so no page without the set
			return nil, fmt.Errorf("%w: block lookup: %v", ErrTransientStore, err)
		}
		for _, id := range ids {
			hidden[id] = struct{}{}
		}
	}

	var (
		visible     []*Item
		lastScanned *Cursor
		exhausted   bool
	)
	batch := limit + 1

	for round := 0; round < maxRefillRounds && len(visible) <= limit; round++ {
		rows, err := s.fetch(ctx, req.Kind, req.SubjectID, after, batch)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			c := row.Cursor()
			lastScanned = &c
			if _, blocked := hidden[row.UserID]; blocked {
				rowsFiltered.WithLabelValues(string(req.Kind)).Inc()
				continue
			}
			visible = append(visible, row)
			if len(visible) > limit {
				break
			}
		}

		if len(rows) < batch {
			exhausted = true
			break
		}
		after = lastScanned
	}

	page := &Page{}
	switch {
	case len(visible) > limit:
		page.Items = visible[:limit]
		next := visible[limit-1].Cursor()
		page.NextCursor = &next
	case exhausted:
		page.Items = visible
	default:
		// Refill budget spent on hidden rows; resume after what was scanned
		page.Items = visible
		page.NextCursor = lastScanned
	}
	if page.Items == nil {
		page.Items = []*Item{}
	}
	return page, nil
}

func (s *Service) fetch(ctx context.Context, kind ListKind, subjectID uuid.UUID, after *Cursor, limit int) ([]*Item, error) {
	rows, err := retry.Do(ctx, s.policy, s.retryable, func(ctx context.Context) ([]*Item, error) {
		return s.repo.List(ctx, kind, subjectID, after, limit)
	})
	if err != nil && s.retryable(err) {
		return nil, fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	return rows, err
}
