package handlers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Sweeper drops expired entries.
type Sweeper interface {
	Sweep() int
}

// CacheSweepHandler runs every in-process sweeper: the query cache and the
// fallback rate limiter windows.
type CacheSweepHandler struct {
	sweepers map[string]Sweeper
	log      *slog.Logger
}

func NewCacheSweepHandler(sweepers map[string]Sweeper, log *slog.Logger) *CacheSweepHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CacheSweepHandler{sweepers: sweepers, log: log}
}

func (h *CacheSweepHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	for name, s := range h.sweepers {
		if s == nil {
			continue
		}
		if removed := s.Sweep(); removed > 0 {
			h.log.DebugContext(ctx, "swept expired entries", slog.String("store", name), slog.Int("removed", removed))
		}
	}
	return nil
}
