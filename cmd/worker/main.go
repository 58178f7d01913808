package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/solutions-liquify/tms/internal/app"
	"github.com/solutions-liquify/tms/internal/delivery/orders"
	"github.com/solutions-liquify/tms/internal/observability"
	"github.com/solutions-liquify/tms/internal/platform/cache"
	"github.com/solutions-liquify/tms/internal/platform/db"
	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/internal/platform/search"
	"github.com/solutions-liquify/tms/internal/shared"
	"github.com/solutions-liquify/tms/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	app.UseNumericDecimals()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	jobMetrics := metrics.Jobs()
	versioned := cache.NewVersioned(redisClient, cfg.CacheTTL)
	ordersService := orders.NewService(orders.NewRepository(pool), logger)

	overdueJob := jobs.NewOverdueScanJob(ordersService, versioned, orders.CacheNamespace, logger, jobMetrics)
	bumpJob := jobs.NewCacheBumpJob(versioned, logger, jobMetrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), logger, jobMetrics)

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskDeliveryOverdueScan, Handler: overdueJob.Handle},
		{Type: jobs.TaskCacheBump, Handler: bumpJob.Handle},
		{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
	}
	cron := []jobs.CronRegistration{
		{Spec: "0 * * * *", Task: mustTask(logger, "overdue scan", func() (*asynq.Task, error) { return jobs.NewOverdueScanTask(false) })},
		{Spec: "0 3 * * *", Task: mustTask(logger, "idempotency cleanup", func() (*asynq.Task, error) { return jobs.NewIdempotencyCleanupTask(0) })},
	}

	if index := newIndex(ctx, cfg, logger); index != nil {
		indexJob := jobs.NewSearchIndexJob(ordersService, index, logger, jobMetrics)
		handlers = append(handlers,
			jobs.TaskHandler{Type: jobs.TaskSearchIndexOrder, Handler: indexJob.HandleIndexOrder},
			jobs.TaskHandler{Type: jobs.TaskSearchReindex, Handler: indexJob.HandleReindex},
		)
		cron = append(cron, jobs.CronRegistration{
			Spec:    "30 2 * * *",
			Task:    mustTask(logger, "reindex", func() (*asynq.Task, error) { return jobs.NewReindexTask(0) }),
			Options: []asynq.Option{asynq.MaxRetry(3)},
		})
	} else {
		// The API enqueues indexing on every change; drain those tasks while search is off.
		drop := func(context.Context, *asynq.Task) error { return nil }
		handlers = append(handlers,
			jobs.TaskHandler{Type: jobs.TaskSearchIndexOrder, Handler: drop},
			jobs.TaskHandler{Type: jobs.TaskSearchReindex, Handler: drop},
		)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron:      cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	server := newMetricsServer(cfg.WorkerMetricsAddr, metrics)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting worker metrics server", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("worker metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		defer stop()
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("worker run: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func mustTask(logger *slog.Logger, name string, build func() (*asynq.Task, error)) *asynq.Task {
	task, err := build()
	if err != nil {
		logger.Error("build "+name+" task", slog.Any("error", err))
		os.Exit(1)
	}
	return task
}

func newIndex(ctx context.Context, cfg *app.Config, logger *slog.Logger) *search.Client {
	if !cfg.SearchEnabled() {
		logger.Info("search disabled, index tasks will be dropped")
		return nil
	}
	client, err := search.New(search.Config{
		URLs:     cfg.ElasticsearchURLs,
		Index:    cfg.ElasticsearchIndex,
		Username: cfg.ElasticsearchUsername,
		Password: cfg.ElasticsearchPassword,
	})
	if err != nil {
		logger.Warn("search disabled", slog.Any("error", err))
		return nil
	}
	if err := client.Ping(ctx); err != nil {
		logger.Warn("search cluster unreachable", slog.Any("error", err))
	}
	return client
}

func newMetricsServer(addr string, metrics *observability.Metrics) *http.Server {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())
	return &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
}
