package middleware

import (
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-chat limits on incoming updates, plus a
// tighter limit on the routes that submit money movements.
type RateLimitMiddleware struct {
	limiter   ratelimit.Limiter
	rules     *ratelimit.Rules
	financial map[string]bool
	log       *slog.Logger
	now       func() time.Time
}

// NewRateLimitMiddleware builds the middleware. financialRoutes are route ids
// (callback uniques or commands) that also count against the financial rule.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger, financialRoutes ...string) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}
	financial := make(map[string]bool, len(financialRoutes))
	for _, r := range financialRoutes {
		financial[r] = true
	}
	return &RateLimitMiddleware{limiter: limiter, rules: rules, financial: financial, log: log, now: time.Now}
}

// Handle returns a rate limit error for the error middleware to render when a
// chat is over its limit. Limiter failures let the update through.
func (m *RateLimitMiddleware) Handle(next handlers.Handler) handlers.Handler {
	return func(c telebot.Context) error {
		if m.limiter == nil || !m.rules.Enabled() {
			return next(c)
		}

		chatID := handlers.ChatID(c)
		if chatID == 0 || m.rules.IsWhitelisted(chatID) {
			return next(c)
		}

		if err := m.check(c, ratelimit.ScopeUpdates, chatID); err != nil {
			return err
		}
		if route, _ := c.Get(handlers.RouteKey).(string); m.financial[route] {
			if err := m.check(c, ratelimit.ScopeFinancial, chatID); err != nil {
				return err
			}
		}
		return next(c)
	}
}

func (m *RateLimitMiddleware) check(c telebot.Context, scope ratelimit.Scope, chatID int64) error {
	limit, window, err := m.rules.Rule(scope)
	if err != nil {
		if !errors.Is(err, ratelimit.ErrRuleDisabled) {
			m.log.Error("invalid rate limit rule", slog.String("scope", string(scope)), slog.Any("error", err))
		}
		return nil
	}

	result, err := m.limiter.Check(handlers.RequestContext(c), ratelimit.Key(scope, chatID), limit, window)
	switch {
	case errors.Is(err, ratelimit.ErrLimitExceeded) || (err == nil && result != nil && !result.Allowed):
		m.log.Warn("rate limit exceeded", slog.Int64("chat_id", chatID), slog.String("scope", string(scope)))
		return apperrors.NewRateLimitError(result.RetryAfter(m.now()))
	case err != nil:
		m.log.Warn("rate limiter error", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	return nil
}
