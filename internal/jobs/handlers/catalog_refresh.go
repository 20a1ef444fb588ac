// Package handlers processes background tasks.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/games"
	"github.com/Proton-105/spinhall-bot/internal/jobs"
)

// Refresher reloads one catalog into the query cache.
type Refresher interface {
	Refresh(ctx context.Context, src games.Source) (int, error)
}

// CatalogRefreshHandler warms the catalog lists so chats rarely wait on the backend.
type CatalogRefreshHandler struct {
	loader Refresher
	log    *slog.Logger
}

func NewCatalogRefreshHandler(loader Refresher, log *slog.Logger) *CatalogRefreshHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogRefreshHandler{loader: loader, log: log}
}

// ProcessTask refreshes every requested catalog. One failing source does not
// stop the others; the task fails when any did, so asynq retries it.
func (h *CatalogRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.CatalogRefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			h.log.ErrorContext(ctx, "catalog refresh: failed to decode payload", slog.String("task_type", t.Type()), slog.Any("error", err))
			return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
		}
	}

	sources := games.Sources
	if len(payload.Sources) > 0 {
		sources = make([]games.Source, 0, len(payload.Sources))
		for _, name := range payload.Sources {
			src, ok := games.ParseSource(name)
			if !ok {
				h.log.WarnContext(ctx, "catalog refresh: unknown source", slog.String("source", name))
				continue
			}
			sources = append(sources, src)
		}
	}

	var failed []string
	for _, src := range sources {
		var count int
		err := apperrors.WithRetry(ctx, func() error {
			var err error
			count, err = h.loader.Refresh(ctx, src)
			return err
		})
		if err != nil {
			h.log.WarnContext(ctx, "catalog refresh failed", slog.String("source", string(src)), slog.Any("error", err))
			failed = append(failed, string(src))
			continue
		}
		h.log.InfoContext(ctx, "catalog refreshed", slog.String("source", string(src)), slog.Int("games", count))
	}

	if len(failed) > 0 {
		return fmt.Errorf("catalog refresh failed for %v", failed)
	}
	return nil
}
