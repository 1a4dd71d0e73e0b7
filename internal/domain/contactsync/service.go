package contactsync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mwork/socialgraph/internal/domain/contactgraph"
	"github.com/mwork/socialgraph/internal/pkg/logger"
	"github.com/mwork/socialgraph/internal/pkg/retry"
)

// FollowingLookup reads a user's accepted follows from the relationship store
type FollowingLookup interface {
	FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// SubmitResult tells the caller whether the job ran or was queued
type SubmitResult struct {
	JobID  uuid.UUID
	Queued bool
}

// Service ingests contact lists into the contact graph
type Service struct {
	graph     contactgraph.Graph
	following FollowingLookup
	queue     Queue
	policy    retry.Policy
}

// NewService creates contact sync service. With a nil queue every
// submission is ingested inline.
func NewService(graph contactgraph.Graph, following FollowingLookup, queue Queue, maxAttempts int) *Service {
	return &Service{
		graph:     graph,
		following: following,
		queue:     queue,
		policy:    retry.DefaultPolicy(maxAttempts),
	}
}

// Submit queues job, or ingests it right away when no queue is configured
func (s *Service) Submit(ctx context.Context, job *Job) (*SubmitResult, error) {
	if s.queue == nil {
		if err := s.Ingest(ctx, job); err != nil {
			return nil, err
		}
		return &SubmitResult{JobID: job.ID}, nil
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		jobsTotal.WithLabelValues("enqueue_failed").Inc()
		return nil, err
	}
	jobsTotal.WithLabelValues("enqueued").Inc()
	return &SubmitResult{JobID: job.ID, Queued: true}, nil
}

// Ingest snapshots the owner's following list and replaces the owner's
// contacts in the graph. The relationship store is only read.
func (s *Service) Ingest(ctx context.Context, job *Job) error {
	start := time.Now()
	defer func() {
		ingestDuration.Observe(time.Since(start).Seconds())
	}()

	following, err := s.following.FollowingIDs(ctx, job.OwnerID)
	if err != nil {
		jobsTotal.WithLabelValues("failed").Inc()
		return err
	}

	batch := contactgraph.SyncBatch{
		OwnerID:         job.OwnerID,
		PhoneNumberHash: job.PhoneNumberHash,
		ContactHashes:   job.ContactHashes,
		Following:       following,
		SyncedAt:        time.Now().UTC(),
	}
	err = retry.Run(ctx, s.policy, func(err error) bool {
		return errors.Is(err, contactgraph.ErrGraphUnavailable)
	}, func(ctx context.Context) error {
		return s.graph.ReplaceContacts(ctx, batch)
	})
	if err != nil {
		jobsTotal.WithLabelValues("failed").Inc()
		return err
	}

	jobsTotal.WithLabelValues("ingested").Inc()
	logger.FromContext(ctx).Info().
		Str("job_id", job.ID.String()).
		Str("owner_id", job.OwnerID.String()).
		Int("contacts", len(job.ContactHashes)).
		Int("following", len(following)).
		Msg("Contact list synced")
	return nil
}
