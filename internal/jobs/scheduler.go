package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/spinhall-bot/pkg/config"
)

// cacheSweepSpec runs the sweep often enough to keep memory flat.
const cacheSweepSpec = "@every 10m"

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	cfg            config.JobsConfig
	log            *slog.Logger
}

func NewScheduler(redisOpt asynq.RedisConnOpt, cfg config.JobsConfig, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		cfg:            cfg,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	task, err := NewCatalogRefreshTask()
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(s.cfg.CatalogRefresh, task); err != nil {
		return err
	}
	if _, err := s.asynqScheduler.Register(cacheSweepSpec, NewCacheSweepTask()); err != nil {
		return err
	}

	s.log.InfoContext(context.Background(), "scheduler: registered tasks",
		slog.String("catalog_refresh", s.cfg.CatalogRefresh),
		slog.String("cache_sweep", cacheSweepSpec),
	)

	return nil
}

func (s *scheduler) Run() {
	s.log.InfoContext(context.Background(), "scheduler: starting")

	go func() {
		if err := s.asynqScheduler.Run(); err != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", slog.Any("error", err))
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")
	s.asynqScheduler.Shutdown()
}
