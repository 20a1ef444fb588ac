package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/spinhall-bot/internal/apiclient"
	"github.com/Proton-105/spinhall-bot/internal/bot"
	"github.com/Proton-105/spinhall-bot/internal/bot/handlers"
	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/games"
	"github.com/Proton-105/spinhall-bot/internal/health"
	"github.com/Proton-105/spinhall-bot/internal/i18n"
	"github.com/Proton-105/spinhall-bot/internal/idempotency"
	"github.com/Proton-105/spinhall-bot/internal/jobs"
	jobhandlers "github.com/Proton-105/spinhall-bot/internal/jobs/handlers"
	"github.com/Proton-105/spinhall-bot/internal/lifecycle"
	"github.com/Proton-105/spinhall-bot/internal/localstore"
	"github.com/Proton-105/spinhall-bot/internal/middleware"
	"github.com/Proton-105/spinhall-bot/internal/querycache"
	"github.com/Proton-105/spinhall-bot/internal/ratelimit"
	"github.com/Proton-105/spinhall-bot/internal/realtime"
	"github.com/Proton-105/spinhall-bot/internal/session"
	"github.com/Proton-105/spinhall-bot/internal/state"
	"github.com/Proton-105/spinhall-bot/pkg/config"
	"github.com/Proton-105/spinhall-bot/pkg/graceful"
	"github.com/Proton-105/spinhall-bot/pkg/logger"
	"github.com/Proton-105/spinhall-bot/pkg/metrics"
	appredis "github.com/Proton-105/spinhall-bot/pkg/redis"
)

const (
	// stateTTL bounds how long an abandoned wizard survives in Redis.
	stateTTL = 24 * time.Hour
	// profileTTL is the upper bound for a cached profile; the token expiry caps it further.
	profileTTL = 10 * time.Minute
)

func main() {
	if err := run(); err != nil {
		slog.Error("spinhall bot stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.AppEnv}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)
	config.Watch(v, func(level string) {
		logger.SetLevel(level)
		log.Info("log level changed", slog.String("level", level))
	})

	log.Info("starting spinhall bot",
		slog.String("mode", cfg.Bot.Mode),
		slog.String("api", cfg.API.BaseURL),
		slog.String("ops_addr", cfg.Server.Port),
	)

	rdb, err := appredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	api, err := apiclient.New(cfg.API, log)
	if err != nil {
		return err
	}

	tr, err := i18n.Load(cfg.I18n.Dir, cfg.I18n.DefaultLang)
	if err != nil {
		return err
	}

	queries := querycache.New(querycache.Options{StaleTime: cfg.Catalog.StaleTime, CacheTime: cfg.Catalog.CacheTime}, log)
	loader := games.NewLoader(api, queries, cfg.Catalog, log)
	prefs := localstore.NewPrefs(localstore.NewRedisStore(rdb.Client))
	profiles := session.NewProfileCache(appredis.NewMetricsClient(rdb), profileTTL)
	sessions := session.NewManager(api, prefs, profiles, log)
	fsm := state.NewStateMachine(state.NewRedisStorage(rdb.Client, log, stateTTL), log, rdb.Client)

	var channel realtime.Channel = realtime.Disabled{}
	if cfg.Realtime.Enabled {
		channel = realtime.NewWebSocket(cfg.Realtime.URL, nil, log)
	}
	center := realtime.NewCenter(channel, log)
	if cfg.Realtime.Enabled {
		if err := channel.Connect(ctx); err != nil {
			log.Warn("realtime channel unavailable", slog.Any("error", err))
		}
	}

	deps := &handlers.Deps{
		Backend:  api,
		Games:    loader,
		Sessions: sessions,
		Prefs:    prefs,
		Queries:  queries,
		FSM:      fsm,
		I18n:     tr,
		Realtime: center,
		Keyboard: keyboard.NewBuilder(log),
		Catalog:  cfg.Catalog,
		Log:      log,
	}

	opts := bot.Options{
		ErrHandler:  apperrors.NewHandler(log, cfg.Sentry.Enabled),
		Idempotency: idempotency.NewManager(idempotency.NewRedisStore(rdb.Client), log),
	}
	fallbackLimiter := ratelimit.NewMemoryLimiter()
	rules := ratelimit.NewRules(cfg.RateLimit)
	if rules.Enabled() {
		limiter := ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(rdb.Client, log), fallbackLimiter, log)
		opts.RateLimit = middleware.NewRateLimitMiddleware(limiter, rules, log, bot.FinancialRoutes...)
	}

	b, err := bot.New(*cfg, log, bot.NewAppRouter(deps, opts), tr)
	if err != nil {
		return err
	}

	checker := health.NewChecker(log)
	checker.AddCheck("redis", health.NewRedisChecker(rdb.Client))
	checker.AddCheck("api", health.NewAPIChecker(api))
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
	probes := lifecycle.NewProbes(checker, log)

	ops := graceful.NewServer(log, cfg.Server.Port, opsRouter(log, probes), cfg.Server.ShutdownTimeout)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	var (
		worker    jobs.Worker
		scheduler jobs.Scheduler
		enqueuer  jobs.Manager
	)
	if cfg.Jobs.Enabled {
		worker = jobs.NewWorker(redisOpt, cfg.Jobs.WorkerConcurrency, log)
		worker.RegisterHandler(jobs.TaskTypeCatalogRefresh, jobhandlers.NewCatalogRefreshHandler(loader, log))
		worker.RegisterHandler(jobs.TaskTypeCacheSweep, jobhandlers.NewCacheSweepHandler(map[string]jobhandlers.Sweeper{
			"query_cache": queries,
			"ratelimit":   fallbackLimiter,
		}, log))
		if err := worker.Start(); err != nil {
			return err
		}

		scheduler = jobs.NewScheduler(redisOpt, cfg.Jobs, log)
		if err := scheduler.RegisterTasks(); err != nil {
			return err
		}
		go scheduler.Run()

		enqueuer = jobs.NewManager(redisOpt, log)
		if task, err := jobs.NewWarmupTask(); err == nil {
			switch _, err := enqueuer.Enqueue(ctx, task); {
			case errors.Is(err, asynq.ErrDuplicateTask):
				log.Debug("catalog warm-up already queued")
			case err != nil:
				log.Warn("catalog warm-up not enqueued", slog.Any("error", err))
			}
		}
	}

	go metrics.NewStateCollector(fsm, 30*time.Second).Run(ctx)
	go b.Start()
	log.Info("telegram bot started")

	err = ops.ListenAndServe(ctx)
	stop()

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram", func(context.Context) error {
		b.Stop()
		return nil
	})
	shutdown.Register("realtime", func(context.Context) error {
		return channel.Disconnect()
	})
	if cfg.Jobs.Enabled {
		shutdown.Register("jobs", func(context.Context) error {
			scheduler.Shutdown()
			worker.Shutdown()
			return enqueuer.Close()
		})
	}
	shutdown.Register("query-cache", func(context.Context) error {
		queries.Wait()
		return nil
	})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if serr := shutdown.Execute(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	if cerr := rdb.Close(); cerr != nil {
		log.Error("error closing redis", slog.Any("error", cerr))
	}

	log.Info("spinhall bot shut down")
	return err
}

func opsRouter(log *slog.Logger, probes *lifecycle.Probes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(logger.Middleware)
	r.Use(middleware.HTTPLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := probes.Liveness(req.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		report := probes.Report(req.Context())
		status := http.StatusOK
		if len(health.Failing(report)) > 0 {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
