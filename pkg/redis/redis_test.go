package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
	"github.com/dmitrymomot/dispatchkit/pkg/redis"
	"github.com/dmitrymomot/dispatchkit/pkg/source"
)

// testClient connects to REDIS_TEST_URL or skips the test.
func testClient(t *testing.T) (*goredis.Client, redis.Config) {
	t.Helper()

	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL is not set")
	}

	cfg := redis.Config{
		ConnectionURL:  url,
		RetryAttempts:  1,
		ConnectTimeout: 5 * time.Second,
		KeyPrefix:      "test:" + uuid.NewString(),
		AttemptTTL:     time.Minute,
		StreamMaxLen:   100,
		PollTimeout:    100 * time.Millisecond,
	}
	cfg.QueueKey = cfg.KeyPrefix + ":requests"

	client, err := redis.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, cfg
}

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "mysql://nope"})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}

func TestConnect_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://127.0.0.1:1/0",
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: time.Second,
	})
	assert.ErrorIs(t, err, redis.ErrRedisNotReady)
}

func TestConstructors_RequireClient(t *testing.T) {
	t.Parallel()

	_, err := redis.NewAttemptLog(nil, redis.Config{})
	assert.ErrorIs(t, err, redis.ErrNilClient)

	_, err = redis.NewRequestQueue(nil, redis.Config{})
	assert.ErrorIs(t, err, redis.ErrNilClient)
}

func TestAttemptLog(t *testing.T) {
	client, cfg := testClient(t)
	ctx := context.Background()

	log, err := redis.NewAttemptLog(client, cfg)
	require.NoError(t, err)

	attempts := []dispatch.Attempt{
		{RequestID: "r1", Channel: dispatch.ChannelEmail, Number: 1, Outcome: dispatch.AttemptTransientFailure, Reason: "503"},
		{RequestID: "r1", Channel: dispatch.ChannelEmail, Number: 2, Outcome: dispatch.AttemptSuccess},
	}
	for _, a := range attempts {
		require.NoError(t, log.Record(ctx, a))
	}
	require.NoError(t, log.Finalize(ctx, dispatch.Outcome{
		RequestID:  "r1",
		Channel:    dispatch.ChannelEmail,
		State:      dispatch.StateDelivered,
		Attempts:   attempts,
		FinishedAt: time.Now(),
	}))

	got, err := log.Attempts(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, dispatch.AttemptSuccess, got[1].Outcome)

	out, err := log.Outcome(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, dispatch.StateDelivered, out.State)
	assert.Len(t, out.Attempts, 2)

	_, err = log.Outcome(ctx, "missing")
	assert.ErrorIs(t, err, redis.ErrNotFound)

	entries, err := client.XRange(ctx, cfg.KeyPrefix+":outcomes", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "r1", entries[0].Values["request_id"])
	assert.Equal(t, "delivered", entries[0].Values["state"])

	ttl, err := client.TTL(ctx, cfg.KeyPrefix+":attempts:r1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRequestQueue(t *testing.T) {
	client, cfg := testClient(t)
	ctx := context.Background()

	queue, err := redis.NewRequestQueue(client, cfg)
	require.NoError(t, err)

	require.NoError(t, queue.Push(ctx,
		dispatch.Request{ID: "q1", Title: "t", Content: "c", Channel: "sms", Recipient: "+1"},
		dispatch.Request{Title: "t", Content: "c", Channel: "push", Recipient: "dev"},
	))
	require.NoError(t, client.RPush(ctx, cfg.QueueKey, "not json").Err())

	n, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	first, err := queue.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "q1", first.ID)

	second, err := queue.Next(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, second.ID, "push assigns an id")
	assert.Equal(t, "push", second.Channel)

	_, err = queue.Next(ctx)
	assert.ErrorIs(t, err, source.ErrMalformedRequest)

	// Empty queue: Next keeps polling until the context ends.
	tctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = queue.Next(tctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	queue.Close()
	_, err = queue.Next(ctx)
	assert.ErrorIs(t, err, source.ErrSourceClosed)
}

func TestHealthcheck(t *testing.T) {
	client, _ := testClient(t)
	assert.NoError(t, redis.Healthcheck(client)(context.Background()))
}
