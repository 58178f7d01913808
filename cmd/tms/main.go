package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/solutions-liquify/tms/internal/app"
	"github.com/solutions-liquify/tms/internal/auth"
	"github.com/solutions-liquify/tms/internal/delivery"
	"github.com/solutions-liquify/tms/internal/delivery/orders"
	"github.com/solutions-liquify/tms/internal/files"
	"github.com/solutions-liquify/tms/internal/masterdata/employees"
	"github.com/solutions-liquify/tms/internal/masterdata/geo"
	"github.com/solutions-liquify/tms/internal/masterdata/locations"
	"github.com/solutions-liquify/tms/internal/masterdata/materials"
	"github.com/solutions-liquify/tms/internal/masterdata/parties"
	mdshared "github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/masterdata/transport"
	"github.com/solutions-liquify/tms/internal/observability"
	"github.com/solutions-liquify/tms/internal/platform/cache"
	"github.com/solutions-liquify/tms/internal/platform/db"
	"github.com/solutions-liquify/tms/internal/platform/search"
	"github.com/solutions-liquify/tms/internal/platform/validation"
	"github.com/solutions-liquify/tms/internal/rbac"
	"github.com/solutions-liquify/tms/internal/shared"
	"github.com/solutions-liquify/tms/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	versioned := cache.NewVersioned(redisClient, cfg.CacheTTL)
	versioned.Subscribe(ctx, func(namespace string, version int64) {
		logger.Debug("cache namespace bumped", slog.String("namespace", namespace), slog.Int64("version", version))
	})

	validate := validation.New()
	rbacService := rbac.NewService()
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	metrics := observability.NewMetrics()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	// Renaming master data changes the names embedded in cached delivery listings.
	invalidator := mdshared.NewInvalidator(versioned, logger, orders.CacheNamespace)

	partyService := parties.NewService(mdshared.NewContactRepository(dbpool, parties.Table), logger)
	partyService.SetInvalidator(invalidator)
	locationService := locations.NewService(mdshared.NewContactRepository(dbpool, locations.Table), logger)
	locationService.SetInvalidator(invalidator)
	materialService := materials.NewService(materials.NewRepository(dbpool), logger)
	materialService.SetInvalidator(invalidator)
	transportService := transport.NewService(transport.NewRepository(dbpool), logger)
	transportService.SetInvalidator(invalidator)
	employeeService := employees.NewService(employees.NewRepository(dbpool), logger)
	geoService := geo.NewService(geo.NewRepository(dbpool), versioned)

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		logger.Error("configure tokens", slog.Any("error", err))
		os.Exit(1)
	}
	authService := auth.NewService(employeeService, tokens, auth.NewRefreshStore(redisClient, cfg.RefreshTokenTTL), logger)

	fileStore, err := files.NewDiskStore(cfg.FileStorageDir)
	if err != nil {
		logger.Error("prepare file storage", slog.Any("error", err))
		os.Exit(1)
	}
	fileService := files.NewService(files.NewRepository(dbpool), fileStore, logger, cfg.FileMaxBytes)

	deliveryDeps := delivery.Deps{
		Pool:     dbpool,
		Logger:   logger,
		Validate: validate,
		RBAC:     rbacMiddleware,
		Cache:    versioned,
		Queue:    jobClient,
		Auditor:  shared.NewAuditLogger(dbpool),
	}
	if searcher := newSearcher(ctx, cfg, logger); searcher != nil {
		deliveryDeps.Searcher = searcher
	}

	router, _ := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		AuthHandler:        auth.NewHandler(logger, authService, validate),
		AuthTokens:         tokens,
		Delivery:           deliveryDeps,
		PartiesHandler:     parties.NewHandler(logger, partyService, validate, rbacMiddleware),
		LocationsHandler:   locations.NewHandler(logger, locationService, validate, rbacMiddleware),
		MaterialsHandler:   materials.NewHandler(logger, materialService, validate, rbacMiddleware),
		EmployeesHandler:   employees.NewHandler(logger, employeeService, validate, rbacMiddleware),
		TransportHandler:   transport.NewHandler(logger, transportService, validate, rbacMiddleware),
		GeoHandler:         geo.NewHandler(logger, geoService, validate, rbacMiddleware),
		FilesHandler:       files.NewHandler(logger, fileService, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(rbacService, rbacMiddleware),
		JobHandler:         jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// newSearcher connects to Elasticsearch when configured. Listing falls back to
// SQL matching when it returns nil.
func newSearcher(ctx context.Context, cfg *app.Config, logger *slog.Logger) *search.Client {
	if !cfg.SearchEnabled() {
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
	if err := client.EnsureIndex(ctx); err != nil {
		logger.Warn("search index unavailable", slog.Any("error", err))
		return nil
	}
	return client
}

var (
	_ delivery.Enqueuer  = (*jobs.Client)(nil)
	_ auth.EmployeeStore = (*employees.Service)(nil)
)
