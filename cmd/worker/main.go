package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fixpoint-erp/fixpoint/internal/app"
	jobmetrics "github.com/fixpoint-erp/fixpoint/internal/jobs"
	"github.com/fixpoint-erp/fixpoint/internal/jobsheet"
	"github.com/fixpoint-erp/fixpoint/internal/platform/db"
	"github.com/fixpoint-erp/fixpoint/jobs"
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sheetRepo := jobsheet.NewRepository(pool)
	sheetService := jobsheet.NewService(logger, sheetRepo, jobsheet.NewClient(cfg.GotenbergURL))

	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: jobs.Handlers{
			Logger:   logger,
			Metrics:  jobmetrics.NewMetrics(nil),
			Sheets:   sheetService,
			Notifier: jobs.NewLogNotifier(logger),
			Points:   jobs.NewPgPoints(pool),
			Warranty: jobs.NewPgWarranty(pool),
			Cleaner:  jobs.NewDiskImageCleaner(cfg.ImageDir),
		},
	})

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exit", slog.Any("error", err))
		os.Exit(1)
	}
}
