package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrRequestInProgress is returned while another caller runs the same key.
var ErrRequestInProgress = errors.New("request with this key is already in progress")

// processingTTL bounds how long a crashed run keeps its key claimed.
const processingTTL = 5 * time.Minute

// Manager runs operations at most once per key.
type Manager interface {
	// Do runs fn unless key already completed. duplicate is true when fn was
	// skipped for that reason. A failed fn releases the key so it can be retried.
	Do(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (duplicate bool, err error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}
	return &manager{store: store, log: log}
}

func (m *manager) Do(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	if fn == nil {
		return false, errors.New("operation fn cannot be nil")
	}

	claimed, err := m.store.Claim(ctx, key, processingTTL)
	if err != nil {
		return false, err
	}
	if !claimed {
		status, err := m.store.Status(ctx, key)
		if err != nil {
			return false, err
		}
		if status == StatusCompleted {
			return true, nil
		}
		return false, ErrRequestInProgress
	}

	if err := fn(ctx); err != nil {
		// A cancelled update context must not prevent the release.
		if relErr := m.store.Release(context.WithoutCancel(ctx), key); relErr != nil {
			m.log.Warn("failed to release idempotency key", slog.String("key", key), slog.Any("error", relErr))
		}
		return false, err
	}

	if err := m.store.Complete(context.WithoutCancel(ctx), key, ttl); err != nil {
		m.log.Warn("failed to complete idempotency key", slog.String("key", key), slog.Any("error", err))
	}
	return false, nil
}
