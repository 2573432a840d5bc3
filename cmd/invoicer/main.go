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
	"github.com/joho/godotenv"

	"github.com/invoicer/invoicer/internal/analytics"
	analytichttp "github.com/invoicer/invoicer/internal/analytics/http"
	"github.com/invoicer/invoicer/internal/app"
	"github.com/invoicer/invoicer/internal/auth"
	"github.com/invoicer/invoicer/internal/clients"
	"github.com/invoicer/invoicer/internal/invoices"
	"github.com/invoicer/invoicer/internal/observability"
	"github.com/invoicer/invoicer/internal/platform/cache"
	"github.com/invoicer/invoicer/internal/platform/db"
	"github.com/invoicer/invoicer/internal/platform/storage"
	"github.com/invoicer/invoicer/internal/shared"
	"github.com/invoicer/invoicer/internal/templates"
	"github.com/invoicer/invoicer/internal/users"
	"github.com/invoicer/invoicer/jobs"
	"github.com/invoicer/invoicer/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	applied, err := db.Migrate(ctx, pool)
	if err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}
	if len(applied) > 0 {
		logger.Info("applied migrations", slog.Any("files", applied))
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "invoicer_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	var logoStore users.LogoStore
	if cfg.StorageConfigured() {
		store, err := storage.NewLogoStore(cfg.Storage())
		if err != nil {
			logger.Error("init logo storage", slog.Any("error", err))
			os.Exit(1)
		}
		logoStore = store
	} else {
		logger.Warn("logo storage not configured, uploads disabled")
	}

	renderer, err := report.NewInvoiceRenderer(report.NewClient(cfg.GotenbergURL))
	if err != nil {
		logger.Error("parse invoice layouts", slog.Any("error", err))
		os.Exit(1)
	}

	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	analyticsService := analytics.NewService(analytics.NewRepository(pool), analyticsCache, logger)

	userRepo := users.NewRepository(pool)
	usersService := users.NewService(userRepo, logoStore, jobClient, logger)
	authService := auth.NewService(auth.NewRepository(pool), userRepo)
	clientsService := clients.NewService(clients.NewRepository(pool), analyticsCache, logger)
	invoicesService := invoices.NewService(invoices.NewRepository(pool), renderer, analyticsCache, logger)
	templatesService := templates.NewService(templates.NewRepository(pool), logger)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Metrics:          observability.NewMetrics(),
		AuthHandler:      auth.NewHandler(logger, authService, sessionManager, csrfManager),
		UsersHandler:     users.NewHandler(logger, usersService),
		ClientsHandler:   clients.NewHandler(logger, clientsService),
		InvoicesHandler:  invoices.NewHandler(logger, invoicesService, cfg.PDFRateLimitPerMinute),
		TemplatesHandler: templates.NewHandler(logger, templatesService),
		AnalyticsHandler: analytichttp.NewHandler(logger, analyticsService, cfg.RateLimitPerMinute),
		JobHandler:       jobs.NewHandler(inspector, logger),
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
