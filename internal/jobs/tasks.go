package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeCatalogRefresh = "catalog:refresh"
	TaskTypeCacheSweep     = "cache:sweep"
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// Queues are the worker priorities.
var Queues = map[string]int{
	QueueDefault: 3,
	QueueLow:     1,
}

// warmupUniqueTTL keeps restarts in quick succession from queueing one
// warm-up each.
const warmupUniqueTTL = 5 * time.Minute

// CatalogRefreshPayload names the catalogs to warm. Empty means all.
type CatalogRefreshPayload struct {
	Sources []string `json:"sources,omitempty"`
}

func NewCatalogRefreshTask(sources ...string) (*asynq.Task, error) {
	payload, err := json.Marshal(CatalogRefreshPayload{Sources: sources})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeCatalogRefresh, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewWarmupTask is the one-off catalog refresh enqueued at startup.
func NewWarmupTask() (*asynq.Task, error) {
	payload, err := json.Marshal(CatalogRefreshPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCatalogRefresh, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(3), asynq.Unique(warmupUniqueTTL)), nil
}

// NewCacheSweepTask drops expired query cache entries.
func NewCacheSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeCacheSweep, nil, asynq.Queue(QueueLow), asynq.MaxRetry(0))
}
