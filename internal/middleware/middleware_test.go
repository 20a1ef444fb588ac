package middleware

import (
	"context"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/bottest"
	"github.com/Proton-105/spinhall-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/idempotency"
	"github.com/Proton-105/spinhall-bot/internal/ratelimit"
	"github.com/Proton-105/spinhall-bot/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newIdempotency(t *testing.T) idempotency.Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return idempotency.NewManager(idempotency.NewRedisStore(client), testLogger())
}

func TestIdempotency_RedeliveredUpdateRunsOnce(t *testing.T) {
	calls := 0
	h := Idempotency(newIdempotency(t), testLogger())(func(telebot.Context) error {
		calls++
		return nil
	})

	c := bottest.Callback(501, "\fwconfirm")
	require.NoError(t, h(c))
	require.NoError(t, h(c))
	assert.Equal(t, 1, calls)

	require.NoError(t, h(bottest.Callback(501, "\fwconfirm")))
	assert.Equal(t, 2, calls, "a new press is a new update")
}

func TestIdempotency_FailedUpdateCanBeRetried(t *testing.T) {
	calls := 0
	h := Idempotency(newIdempotency(t), testLogger())(func(telebot.Context) error {
		calls++
		if calls == 1 {
			return apperrors.NewTransportError("/api/withdrawals", assert.AnError)
		}
		return nil
	})

	c := bottest.Text(502, "150")
	assert.Error(t, h(c))
	assert.NoError(t, h(c))
	assert.Equal(t, 2, calls)
}

func TestIdempotency_NilManagerPassesThrough(t *testing.T) {
	calls := 0
	h := Idempotency(nil, nil)(func(telebot.Context) error { calls++; return nil })
	c := bottest.Text(503, "hi")
	_ = h(c)
	_ = h(c)
	assert.Equal(t, 2, calls)
}

func newRateLimit(financial ...string) *RateLimitMiddleware {
	rules := ratelimit.NewRules(config.RateLimitConfig{
		Enabled:   true,
		PerUser:   config.RateLimitRule{Limit: 3, Window: "1m"},
		Financial: config.RateLimitRule{Limit: 1, Window: "1m"},
		Whitelist: []int64{900},
	})
	return NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(), rules, testLogger(), financial...)
}

func routed(chatID int64, route string) *bottest.Context {
	c := bottest.Text(chatID, "x")
	c.Set(handlers.RouteKey, route)
	c.Set(handlers.ContextKey, context.Background())
	return c
}

func TestRateLimit_PerChat(t *testing.T) {
	h := newRateLimit().Handle(func(telebot.Context) error { return nil })

	for i := 0; i < 3; i++ {
		require.NoError(t, h(routed(10, "/slots")))
	}
	err := h(routed(10, "/slots"))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeRateLimit, appErr.Code)
	assert.NotEmpty(t, appErr.Args["Seconds"])

	assert.NoError(t, h(routed(11, "/slots")), "other chats are not affected")
	for i := 0; i < 5; i++ {
		assert.NoError(t, h(routed(900, "/slots")), "whitelisted chat")
	}
}

func TestRateLimit_FinancialRoutes(t *testing.T) {
	h := newRateLimit("wconfirm").Handle(func(telebot.Context) error { return nil })

	require.NoError(t, h(routed(20, "wconfirm")))
	appErr, ok := apperrors.As(h(routed(20, "wconfirm")))
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeRateLimit, appErr.Code)

	assert.NoError(t, h(routed(20, "/profile")), "updates budget is separate")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "error", outcome(assert.AnError))
	assert.Equal(t, apperrors.CodeUnauthorized, outcome(apperrors.NewUnauthorizedError("/api/auth/me")))
}
