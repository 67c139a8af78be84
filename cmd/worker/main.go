package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/app"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/company"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/facturx"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/facturx/packager"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/facturx/render"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/invoicing"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/platform/cache"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/platform/db"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/internal/sequence"
	"github.com/CorentinBoutillier/invoice-bundle-sub000/jobs"
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

	companyRepo := company.NewRepository(pool)
	companyService := company.NewService(companyRepo)

	registry := facturx.NewRegistry(facturx.NewBasicBuilder(), facturx.NewEN16931Builder())
	documentCache := facturx.NewDocumentCache(redisClient, cfg.DocumentCacheTTL)

	invoicingRepo := invoicing.NewRepository(pool, sequence.NewStore())
	invoicingService := invoicing.NewService(
		invoicingRepo,
		companyService,
		facturx.RegistryAdapter{Registry: registry},
		facturx.CacheAdapter{Cache: documentCache, Registry: registry},
		nil, // the worker consumes archive tasks, it never enqueues them
		invoicing.ServiceConfig{
			FiscalYearStartMonth: time.Month(cfg.FiscalYearStartMonth),
			FiscalYearStartDay:   cfg.FiscalYearStartDay,
		},
	)

	archiveJob := jobs.NewInvoiceArchiveJob(
		invoicingService,
		render.NewRenderer(),
		packager.New(),
		cfg.ArchiveDir,
		logger,
		nil,
	)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskInvoiceArchive, Handler: archiveJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
