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

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/fixpoint-erp/fixpoint/internal/app"
	"github.com/fixpoint-erp/fixpoint/internal/jobsheet"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/branches"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/catalog"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/customers"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/devices"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/faults"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/payments"
	"github.com/fixpoint-erp/fixpoint/internal/numbering"
	"github.com/fixpoint-erp/fixpoint/internal/observability"
	"github.com/fixpoint-erp/fixpoint/internal/platform/cache"
	"github.com/fixpoint-erp/fixpoint/internal/platform/db"
	"github.com/fixpoint-erp/fixpoint/internal/shared"
	"github.com/fixpoint-erp/fixpoint/internal/stock"
	"github.com/fixpoint-erp/fixpoint/internal/tickets"
	"github.com/fixpoint-erp/fixpoint/jobs"
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

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	validate := validator.New()
	auditLogger := shared.NewAuditLogger(pool)

	branchRepo := branches.NewRepository(pool)
	branchService := branches.NewService(branchRepo)
	branchHandler := branches.NewHandler(logger, branchService, validate)

	customerRepo := customers.NewRepository(pool)
	customerService := customers.NewService(customerRepo)
	customerHandler := customers.NewHandler(logger, customerService, validate)

	deviceRepo := devices.NewRepository(pool)
	deviceService := devices.NewService(deviceRepo)
	deviceHandler := devices.NewHandler(logger, deviceService, validate)

	faultRepo := faults.NewRepository(pool)
	faultCache := faults.NewCache(redisClient, 10*time.Minute)
	faultService := faults.NewService(faultRepo, faultCache, logger)
	faultHandler := faults.NewHandler(logger, faultService, validate)

	paymentRepo := payments.NewRepository(pool)
	paymentService := payments.NewService(paymentRepo)
	paymentHandler := payments.NewHandler(logger, paymentService, validate)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, validate)

	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo, auditLogger, logger)
	stockHandler := stock.NewHandler(logger, stockService, validate)

	dispatcher := jobs.NewDispatcher(asynqClient, logger)
	sequencer := numbering.NewSequencer(pool)
	refs := tickets.NewReferenceChecker(pool, faultService)

	ticketRepo := tickets.NewRepository(pool)
	ticketService := tickets.NewService(ticketRepo, refs, sequencer, dispatcher, auditLogger, logger, tickets.ServiceConfig{
		CreateTimeout: cfg.AppRequestTimeout,
	})
	ticketHandler := tickets.NewHandler(logger, ticketService, validate)

	sheetRepo := jobsheet.NewRepository(pool)
	sheetService := jobsheet.NewService(logger, sheetRepo, jobsheet.NewClient(cfg.GotenbergURL))
	sheetHandler := jobsheet.NewHandler(sheetService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		TicketsHandler:   ticketHandler,
		StockHandler:     stockHandler,
		JobSheetHandler:  sheetHandler,
		BranchesHandler:  branchHandler,
		CustomersHandler: customerHandler,
		DevicesHandler:   deviceHandler,
		FaultsHandler:    faultHandler,
		PaymentsHandler:  paymentHandler,
		CatalogHandler:   catalogHandler,
		JobsHandler:      jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
