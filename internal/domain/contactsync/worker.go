package contactsync

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mwork/socialgraph/internal/pkg/logger"
)

// WorkerConfig tunes the consume loop
type WorkerConfig struct {
	// PollWait is how long one BRPOP blocks
	PollWait time.Duration
	// MaxAttempts before a job is buried
	MaxAttempts int
	// JobTimeout bounds one ingestion
	JobTimeout   time.Duration
	IdleLogEvery time.Duration
}

// Worker consumes the contact sync queue one job at a time
type Worker struct {
	queue   Queue
	service *Service
	cfg     WorkerConfig
}

// NewWorker creates a queue consumer
func NewWorker(queue Queue, service *Service, cfg WorkerConfig) *Worker {
	if cfg.PollWait <= 0 {
		cfg.PollWait = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if cfg.IdleLogEvery <= 0 {
		cfg.IdleLogEvery = time.Minute
	}
	return &Worker{queue: queue, service: service, cfg: cfg}
}

// Run processes jobs until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	lastIdleLog := time.Time{}

	for {
		if ctx.Err() != nil {
			log.Info().Msg("contact-sync worker stopped")
			return nil
		}

		job, err := w.queue.Dequeue(ctx, w.cfg.PollWait)
		switch {
		case errors.Is(err, ErrQueueEmpty):
			now := time.Now()
			if lastIdleLog.IsZero() || now.Sub(lastIdleLog) >= w.cfg.IdleLogEvery {
				log.Info().Msg("Idle: no contact sync jobs queued")
				lastIdleLog = now
			}
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			continue
		case errors.Is(err, ErrQueueUnavailable):
			log.Error().Err(err).Msg("Queue error while waiting for job")
			sleep(ctx, w.cfg.PollWait)
			continue
		case err != nil:
			// Undecodable payload, nothing to retry
			log.Error().Err(err).Msg("Dropping malformed contact sync job")
			jobsTotal.WithLabelValues("malformed").Inc()
			continue
		}

		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *Job) {
	start := time.Now()
	l := log.With().
		Str("job_id", job.ID.String()).
		Str("owner_id", job.OwnerID.String()).
		Int("attempt", job.Attempts+1).
		Logger()
	l.Info().Int("contacts", len(job.ContactHashes)).Msg("Processing contact sync job")

	// A dequeued job finishes even if shutdown starts meanwhile
	jobCtx, cancel := context.WithTimeout(logger.WithContext(context.WithoutCancel(ctx), &l), w.cfg.JobTimeout)
	defer cancel()

	if err := w.service.Ingest(jobCtx, job); err != nil {
		job.Attempts++
		if job.Attempts >= w.cfg.MaxAttempts {
			l.Error().Err(err).Msg("Contact sync job failed permanently")
			jobsTotal.WithLabelValues("buried").Inc()
			if err2 := w.queue.Bury(jobCtx, job); err2 != nil {
				l.Error().Err(err2).Msg("Failed to bury contact sync job")
			}
			return
		}

		l.Warn().Err(err).Msg("Contact sync job failed, requeueing")
		if err2 := w.queue.Enqueue(jobCtx, job); err2 != nil {
			l.Error().Err(err2).Msg("Failed to requeue contact sync job")
		}
		return
	}

	l.Info().Dur("took", time.Since(start)).Msg("Contact sync job done")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
