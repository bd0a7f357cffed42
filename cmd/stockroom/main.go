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

	"github.com/odyssey-erp/stockroom/internal/analytics"
	analytichttp "github.com/odyssey-erp/stockroom/internal/analytics/http"
	"github.com/odyssey-erp/stockroom/internal/app"
	"github.com/odyssey-erp/stockroom/internal/inventory"
	"github.com/odyssey-erp/stockroom/internal/observability"
	"github.com/odyssey-erp/stockroom/internal/platform/cache"
	"github.com/odyssey-erp/stockroom/internal/platform/db"
	"github.com/odyssey-erp/stockroom/internal/shared"
	"github.com/odyssey-erp/stockroom/jobs"
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

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
			logger.Error("migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisOpts := cache.Options{Addr: cfg.RedisAddr}
	redisClient, err := cache.New(ctx, redisOpts)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(cache.QueueOpts(redisOpts))
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	dashboardCache := analytics.NewCache(redisClient, cfg.DashboardCacheTTL)
	inventoryRepo := inventory.NewRepository(dbpool)

	// The dashboard service reads through the inventory service, which in
	// turn notifies it of changes, so the source is bound after construction.
	catalog := &catalogSource{}
	dashboardService := analytics.NewService(catalog, dashboardCache, analytics.Config{
		FeedLimit:         cfg.DashboardFeedLimit,
		LowStockThreshold: cfg.LowStockThreshold,
		Logger:            logger,
	})
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, idempotencyStore, inventory.ServiceConfig{
		Logger:            logger,
		Metrics:           metrics,
		LowStockThreshold: cfg.LowStockThreshold,
	}, dashboardService, jobClient)
	catalog.service = inventoryService

	if err := dashboardCache.ListenForInvalidation(ctx, "", func(version int64) {
		logger.Debug("dashboard cache version bumped", slog.Int64("version", version))
	}); err != nil {
		logger.Warn("subscribe cache invalidation", slog.Any("error", err))
	}

	inspector := asynq.NewInspector(cache.QueueOpts(redisOpts))
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		InventoryHandler: inventory.NewHandler(logger, inventoryService),
		AnalyticsHandler: analytichttp.NewHandler(logger, dashboardService, cfg.ExportRateLimitPerMinute),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
		AccessLog:        !cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
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

type catalogSource struct {
	service *inventory.Service
}

func (c *catalogSource) Snapshot(ctx context.Context) ([]inventory.Product, error) {
	return c.service.Snapshot(ctx)
}
