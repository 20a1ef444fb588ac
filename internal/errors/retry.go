package errors

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	MaxRetries        = 3
	InitialBackoff    = 100 * time.Millisecond
	MaxBackoff        = 5 * time.Second
	BackoffMultiplier = 2
	// jitterFraction is the share of a delay that is randomized.
	jitterFraction = 0.2
)

// WithRetry retries fn while it returns retryable AppErrors (transport
// failures, 429 and 5xx). User-facing fetches never go through it; the
// background catalog refresh does.
func WithRetry(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}

	var err error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fn()
		if err == nil || !IsRetryable(err) || attempt == MaxRetries {
			return err
		}

		timer := time.NewTimer(Backoff(attempt+1, rand.Float64))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return err
}

func IsRetryable(err error) bool {
	if appErr, ok := As(err); ok {
		return appErr.Retryable
	}
	return false
}

// Backoff is the delay before retry number attempt: exponential from
// InitialBackoff, capped at MaxBackoff, minus up to jitterFraction of itself.
// random returns a value in [0, 1).
func Backoff(attempt int, random func() float64) time.Duration {
	delay := InitialBackoff
	for i := 0; i < attempt && delay < MaxBackoff; i++ {
		delay *= BackoffMultiplier
	}
	delay = min(delay, MaxBackoff)

	if random != nil {
		delay -= time.Duration(float64(delay) * jitterFraction * random())
	}
	return delay
}
