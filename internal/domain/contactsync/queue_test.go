package contactsync

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Skipf("invalid TEST_REDIS_URL: %v", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisQueueFIFO(t *testing.T) {
	client := setupTestRedis(t)
	key := "test:contact_sync:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), key, key+":dead") })

	q := NewRedisQueue(client, key)
	ctx := context.Background()

	first := NewJob(uuid.New(), "", []string{"a"})
	second := NewJob(uuid.New(), "", []string{"b"})
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, first.ContactHashes, got.ContactHashes)

	got, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = q.Dequeue(ctx, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrQueueEmpty)

	require.NoError(t, q.Bury(ctx, got))
	n, err := client.LLen(ctx, key+":dead").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
