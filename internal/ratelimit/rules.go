package ratelimit

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/Proton-105/spinhall-bot/pkg/config"
)

// ErrRuleDisabled is returned for a scope without a configured rule.
var ErrRuleDisabled = errors.New("rate limit rule is not configured")

// Rules encapsulates configured rate limits and helper methods.
type Rules struct {
	config config.RateLimitConfig
}

// NewRules constructs rate limiting rules from configuration settings.
func NewRules(cfg config.RateLimitConfig) *Rules {
	return &Rules{config: cfg}
}

// Enabled reports whether limits apply at all.
func (r *Rules) Enabled() bool {
	return r != nil && r.config.Enabled
}

// IsWhitelisted returns true if the chat bypasses rate limits.
func (r *Rules) IsWhitelisted(chatID int64) bool {
	return slices.Contains(r.config.Whitelist, chatID)
}

// Rule returns the limit and window for scope.
func (r *Rules) Rule(scope Scope) (int, time.Duration, error) {
	switch scope {
	case ScopeUpdates:
		return parseRule(r.config.PerUser)
	case ScopeFinancial:
		return parseRule(r.config.Financial)
	default:
		return 0, 0, fmt.Errorf("unknown rate limit scope %q", scope)
	}
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Limit <= 0 || rule.Window == "" {
		return 0, 0, ErrRuleDisabled
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, fmt.Errorf("parse window %q: %w", rule.Window, err)
	}
	return rule.Limit, window, nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
