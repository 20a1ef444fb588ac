package errors

import (
	stdErrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBackendDown = stdErrors.New("backend down")

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(nil)
	cb.now = func() time.Time { return now }

	for i := 0; i < MinRequests; i++ {
		_ = cb.Call(func() error { return errBackendDown })
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Call(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)

	now = now.Add(TimeoutDuration)
	for i := 0; i < HalfOpenMaxRequests; i++ {
		assert.NoError(t, cb.Call(func() error { return nil }))
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IgnoresUncountableErrors(t *testing.T) {
	cb := NewCircuitBreaker(IsRetryable)
	clientErr := NewValidationError("bad request")

	for i := 0; i < MinRequests*2; i++ {
		err := cb.Call(func() error { return clientErr })
		assert.Same(t, clientErr, err)
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(nil)
	cb.now = func() time.Time { return now }

	for i := 0; i < MinRequests; i++ {
		_ = cb.Call(func() error { return errBackendDown })
	}
	now = now.Add(TimeoutDuration)

	_ = cb.Call(func() error { return errBackendDown })
	assert.Equal(t, StateOpen, cb.State())
}
