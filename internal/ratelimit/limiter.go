// Package ratelimit throttles incoming updates per chat. Redis holds the
// sliding windows so limits survive restarts and hold across replicas; an
// in-memory limiter takes over at half the rate while Redis is unreachable.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window frees up, at least 1.
func (r *Result) RetryAfter(now time.Time) int {
	if r == nil {
		return 1
	}
	secs := int(r.ResetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter describes a rate-limiting strategy interface.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// ErrLimitExceeded indicates the rate limit has been reached for the key.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Scope selects which configured rule applies to an update.
type Scope string

const (
	// ScopeUpdates covers every update of a chat.
	ScopeUpdates Scope = "updates"
	// ScopeFinancial covers deposit and withdrawal submissions.
	ScopeFinancial Scope = "financial"
)

// Key is the limiter key for a chat in scope.
func Key(scope Scope, chatID int64) string {
	return string(scope) + ":" + itoa(chatID)
}
