package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/invoicer/invoicer/internal/analytics"
	"github.com/invoicer/invoicer/internal/app"
	jobmetrics "github.com/invoicer/invoicer/internal/jobs"
	"github.com/invoicer/invoicer/internal/platform/cache"
	"github.com/invoicer/invoicer/internal/platform/db"
	"github.com/invoicer/invoicer/internal/platform/storage"
	"github.com/invoicer/invoicer/internal/users"
	"github.com/invoicer/invoicer/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 4})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	analyticsService := analytics.NewService(analytics.NewRepository(pool), analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL), logger)
	warmupJob := jobs.NewAnalyticsWarmupJob(analyticsService, users.NewRepository(pool), logger, metrics)
	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskAnalyticsWarmup, Handler: warmupJob.Handle},
	}

	if cfg.StorageConfigured() {
		store, err := storage.NewLogoStore(cfg.Storage())
		if err != nil {
			logger.Error("init logo storage", slog.Any("error", err))
			os.Exit(1)
		}
		cleanup := jobs.NewLogoCleanupJob(store, logger, metrics)
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskLogoDelete, Handler: cleanup.Handle})
	} else {
		logger.Warn("logo storage not configured, logo cleanup disabled")
	}

	warmupTask, err := jobs.NewAnalyticsWarmupTask(jobs.AnalyticsWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.Int("handlers", len(handlers)))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
