package handlers

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/games"
	"github.com/Proton-105/spinhall-bot/internal/jobs"
)

type fakeRefresher struct {
	calls map[games.Source]int
	fail  map[games.Source]error
}

func (f *fakeRefresher) Refresh(_ context.Context, src games.Source) (int, error) {
	f.calls[src]++
	if err := f.fail[src]; err != nil {
		return 0, err
	}
	return 10, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCatalogRefresh_AllSources(t *testing.T) {
	r := &fakeRefresher{calls: map[games.Source]int{}}
	task, err := jobs.NewCatalogRefreshTask()
	require.NoError(t, err)

	require.NoError(t, NewCatalogRefreshHandler(r, testLogger()).ProcessTask(context.Background(), task))
	for _, src := range games.Sources {
		assert.Equal(t, 1, r.calls[src], string(src))
	}
}

func TestCatalogRefresh_SelectedSourceAndFailure(t *testing.T) {
	r := &fakeRefresher{
		calls: map[games.Source]int{},
		fail:  map[games.Source]error{games.SourceLive: apperrors.NewValidationError("bad response")},
	}
	task, err := jobs.NewCatalogRefreshTask("slots", "live", "bogus")
	require.NoError(t, err)

	err = NewCatalogRefreshHandler(r, testLogger()).ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, 1, r.calls[games.SourceSlots])
	assert.Equal(t, 1, r.calls[games.SourceLive], "non-retryable errors are not retried in-process")
	assert.Zero(t, r.calls[games.SourceFast])
}

func TestCatalogRefresh_BadPayloadSkipsRetry(t *testing.T) {
	r := &fakeRefresher{calls: map[games.Source]int{}}
	task := asynq.NewTask(jobs.TaskTypeCatalogRefresh, []byte("{"))

	err := NewCatalogRefreshHandler(r, testLogger()).ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type countingSweeper struct{ n int }

func (s *countingSweeper) Sweep() int {
	s.n++
	return 3
}

func TestCacheSweep(t *testing.T) {
	queries, windows := &countingSweeper{}, &countingSweeper{}
	h := NewCacheSweepHandler(map[string]Sweeper{"queries": queries, "ratelimit": windows, "disabled": nil}, testLogger())

	require.NoError(t, h.ProcessTask(context.Background(), jobs.NewCacheSweepTask()))
	assert.Equal(t, 1, queries.n)
	assert.Equal(t, 1, windows.n)
}
