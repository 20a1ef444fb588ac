package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/internal/health"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShutdown_RunsHooksInOrder(t *testing.T) {
	s := NewShutdown(discard())
	var order []string
	s.Register("telegram", func(context.Context) error { order = append(order, "telegram"); return nil })
	s.Register("jobs", func(context.Context) error { order = append(order, "jobs"); return errors.New("asynq busy") })
	s.Register("cache", func(context.Context) error { order = append(order, "cache"); return nil })

	err := s.Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobs: asynq busy")
	assert.Equal(t, []string{"telegram", "jobs", "cache"}, order)

	// second call is a no-op
	assert.NoError(t, s.Execute(context.Background()))
	assert.Len(t, order, 3)
}

func TestShutdown_SkipsAfterDeadline(t *testing.T) {
	s := NewShutdown(discard())
	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	s.Register("first", func(context.Context) error { cancel(); return nil })
	s.Register("second", func(context.Context) error { ran = true; return nil })

	err := s.Execute(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestProbes(t *testing.T) {
	checker := health.NewChecker(discard())
	checker.AddCheck("api", health.CheckFunc(func(context.Context) error { return nil }))
	p := NewProbes(checker, discard())

	assert.NoError(t, p.Liveness(context.Background()))
	assert.NoError(t, p.Readiness(context.Background()))

	checker.AddCheck("redis", health.CheckFunc(func(context.Context) error { return errors.New("connection refused") }))
	err := p.Readiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
	assert.Equal(t, "connection refused", p.Report(context.Background())["redis"])
}
