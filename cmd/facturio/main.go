package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/app"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/company"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/facturx"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/invoicing"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/observability"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/platform/cache"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/platform/db"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/sequence"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
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

	companyRepo := company.NewRepository(pool)
	companyService := company.NewService(companyRepo)
	companyHandler := company.NewHandler(logger, companyService)

	registry := facturx.NewRegistry(facturx.NewBasicBuilder(), facturx.NewEN16931Builder())
	documentCache := facturx.NewDocumentCache(redisClient, cfg.DocumentCacheTTL)

	archiveClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := archiveClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	invoicingRepo := invoicing.NewRepository(pool, sequence.NewStore())
	invoicingService := invoicing.NewService(
		invoicingRepo,
		companyService,
		facturx.RegistryAdapter{Registry: registry},
		facturx.CacheAdapter{Cache: documentCache, Registry: registry},
		archiveClient,
		invoicing.ServiceConfig{
			FiscalYearStartMonth: time.Month(cfg.FiscalYearStartMonth),
			FiscalYearStartDay:   cfg.FiscalYearStartDay,
			Metrics:              metrics,
		},
	)
	invoicingHandler := invoicing.NewHandler(logger, invoicingService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		InvoicingHandler: invoicingHandler,
		CompanyHandler:   companyHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
