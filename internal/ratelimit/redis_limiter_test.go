package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return client, func() { _ = client.Close() }
}

func TestRedisLimiter_PerChatWindow(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	limiter := NewRedisLimiter(client, testLogger())
	limiter.now = func() time.Time { return now }
	ctx := context.Background()
	key := Key(ScopeUpdates, 1001)

	first, err := limiter.Check(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	now = now.Add(time.Second)
	_, err = limiter.Check(ctx, key, 2, time.Minute)
	require.NoError(t, err)

	now = now.Add(time.Second)
	third, err := limiter.Check(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Equal(t, 0, third.Remaining)
	assert.Equal(t, 60, third.RetryAfter(now))

	other, err := limiter.Check(ctx, Key(ScopeUpdates, 1002), 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	ttl, err := client.TTL(ctx, keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, ttl)
}

func TestRedisLimiter_WindowSlides(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	limiter := NewRedisLimiter(client, testLogger())
	limiter.now = func() time.Time { return now }
	ctx := context.Background()
	key := Key(ScopeFinancial, 77)

	res, err := limiter.Check(ctx, key, 1, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	now = now.Add(5 * time.Second)
	res, err = limiter.Check(ctx, key, 1, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// rejected requests stay in the window, so the chat waits for both to age out
	now = now.Add(11 * time.Second)
	res, err = limiter.Check(ctx, key, 1, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisLimiter_ZeroLimitRejects(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	res, err := NewRedisLimiter(client, testLogger()).Check(context.Background(), Key(ScopeFinancial, 1), 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
