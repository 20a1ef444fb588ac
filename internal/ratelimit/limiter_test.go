package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/pkg/config"
)

type brokenLimiter struct{}

func (brokenLimiter) Check(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, errors.New("connection refused")
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter()
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.Check(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := limiter.Check(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 60, res.RetryAfter(now))

	now = now.Add(61 * time.Second)
	res, err = limiter.Check(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	now := time.Now()
	limiter := NewMemoryLimiter()
	limiter.now = func() time.Time { return now }

	_, err := limiter.Check(context.Background(), "idle", 5, time.Minute)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, limiter.Sweep())
	assert.Empty(t, limiter.windows)
}

func TestAdaptiveLimiter_FallsBackAtHalfRate(t *testing.T) {
	limiter := NewAdaptiveLimiter(brokenLimiter{}, NewMemoryLimiter(), testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Check(ctx, "chat", 4, time.Minute)
		require.NoError(t, err)
	}
	res, err := limiter.Check(ctx, "chat", 4, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	require.NotNil(t, res)
	assert.False(t, res.Allowed)
}

func TestAdaptiveLimiter_UsesRedis(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	limiter := NewAdaptiveLimiter(NewRedisLimiter(client, testLogger()), NewMemoryLimiter(), testLogger())
	ctx := context.Background()

	_, err := limiter.Check(ctx, Key(ScopeFinancial, 7), 1, time.Minute)
	require.NoError(t, err)
	_, err = limiter.Check(ctx, Key(ScopeFinancial, 7), 1, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)

	_, err = limiter.Check(ctx, Key(ScopeFinancial, 8), 1, time.Minute)
	assert.NoError(t, err, "other chats keep their own window")
}

func TestRules(t *testing.T) {
	rules := NewRules(config.RateLimitConfig{
		Enabled:   true,
		PerUser:   config.RateLimitRule{Limit: 30, Window: "1m"},
		Financial: config.RateLimitRule{Limit: 3, Window: "10m"},
		Whitelist: []int64{42},
	})

	limit, window, err := rules.Rule(ScopeUpdates)
	require.NoError(t, err)
	assert.Equal(t, 30, limit)
	assert.Equal(t, time.Minute, window)

	limit, window, err = rules.Rule(ScopeFinancial)
	require.NoError(t, err)
	assert.Equal(t, 3, limit)
	assert.Equal(t, 10*time.Minute, window)

	assert.True(t, rules.IsWhitelisted(42))
	assert.False(t, rules.IsWhitelisted(43))
	assert.True(t, rules.Enabled())

	_, _, err = NewRules(config.RateLimitConfig{}).Rule(ScopeFinancial)
	assert.ErrorIs(t, err, ErrRuleDisabled)
}
