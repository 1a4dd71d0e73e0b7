package contactsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue carries contact sync jobs from the API to the worker
type Queue interface {
	Enqueue(ctx context.Context, job *Job) error
	// Dequeue blocks up to wait for a job. Returns ErrQueueEmpty on timeout.
	Dequeue(ctx context.Context, wait time.Duration) (*Job, error)
	// Bury parks a job that ran out of attempts
	Bury(ctx context.Context, job *Job) error
}

// RedisQueue is a FIFO list: LPUSH on enqueue, BRPOP on dequeue
type RedisQueue struct {
	client  *redis.Client
	key     string
	deadKey string
}

// NewRedisQueue creates a queue on the given list key
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key, deadKey: key + ":dead"}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job *Job) error {
	return q.push(ctx, q.key, job)
}

func (q *RedisQueue) Bury(ctx context.Context, job *Job) error {
	return q.push(ctx, q.deadKey, job)
}

func (q *RedisQueue) push(ctx context.Context, key string, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (*Job, error) {
	res, err := q.client.BRPop(ctx, wait, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	// BRPOP replies with [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("%w: unexpected BRPOP reply of %d elements", ErrQueueUnavailable, len(res))
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}
