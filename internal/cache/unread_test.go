package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/teamtask/internal/cache"
)

func connect(t *testing.T) *redis.Client {
	t.Helper()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}
	client, err := cache.Connect(context.Background(), redisURL)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisUnreadCounts(t *testing.T) {
	client := connect(t)
	ctx := context.Background()
	counts := cache.NewRedisUnreadCounts(client, time.Minute)

	userID := uuid.NewString()
	other := uuid.NewString()

	_, ok, err := counts.Get(ctx, userID)
	require.NoError(t, err)
	require.False(t, ok)

	gen, err := counts.Generation(ctx, userID)
	require.NoError(t, err)
	require.Zero(t, gen)

	require.NoError(t, counts.Set(ctx, userID, gen, 3))
	require.NoError(t, counts.Set(ctx, other, 0, 0))

	n, ok, err := counts.Get(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, n)

	n, ok, err = counts.Get(ctx, other)
	require.NoError(t, err)
	require.True(t, ok, "a cached zero is still a hit")
	require.Equal(t, 0, n)

	require.NoError(t, counts.Invalidate(ctx, userID, other))
	_, ok, err = counts.Get(ctx, userID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, counts.Invalidate(ctx))
}

func TestRedisUnreadCounts_StaleSetIsDropped(t *testing.T) {
	client := connect(t)
	ctx := context.Background()
	counts := cache.NewRedisUnreadCounts(client, time.Minute)
	userID := uuid.NewString()

	before, err := counts.Generation(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, counts.Invalidate(ctx, userID))

	after, err := counts.Generation(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, before+1, after)

	require.NoError(t, counts.Set(ctx, userID, before, 7))
	_, ok, err := counts.Get(ctx, userID)
	require.NoError(t, err)
	require.False(t, ok, "a count read before the invalidation must not be cached")

	require.NoError(t, counts.Set(ctx, userID, after, 8))
	n, ok, err := counts.Get(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 8, n)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}
