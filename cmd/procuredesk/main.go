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

	"github.com/procuredesk/procuredesk/internal/app"
	"github.com/procuredesk/procuredesk/internal/auth"
	"github.com/procuredesk/procuredesk/internal/masterdata/customers"
	"github.com/procuredesk/procuredesk/internal/masterdata/products"
	"github.com/procuredesk/procuredesk/internal/masterdata/suppliers"
	"github.com/procuredesk/procuredesk/internal/observability"
	"github.com/procuredesk/procuredesk/internal/platform/cache"
	"github.com/procuredesk/procuredesk/internal/platform/db"
	"github.com/procuredesk/procuredesk/internal/purchasing"
	"github.com/procuredesk/procuredesk/internal/rbac"
	"github.com/procuredesk/procuredesk/internal/recyclebin"
	"github.com/procuredesk/procuredesk/internal/sales"
	"github.com/procuredesk/procuredesk/internal/shared"
	"github.com/procuredesk/procuredesk/jobs"
	"github.com/procuredesk/procuredesk/report"
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

	sessionManager := shared.NewSessionManager(redisClient, "procuredesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	productsService := products.NewService(products.NewRepository(dbpool))
	productsHandler := products.NewHandler(logger, productsService, rbacMiddleware)
	suppliersService := suppliers.NewService(suppliers.NewRepository(dbpool))
	suppliersHandler := suppliers.NewHandler(logger, suppliersService, rbacMiddleware)
	customersService := customers.NewService(customers.NewRepository(dbpool))
	customersHandler := customers.NewHandler(logger, customersService, rbacMiddleware)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	purchasingRepo := purchasing.NewPGRepository(dbpool)
	purchasingService := purchasing.NewService(purchasingRepo, productsService, auditLogger, purchasing.NewAsynqEvents(asynqClient, logger))
	purchasingHandler := purchasing.NewHandler(logger, purchasingService, rbacMiddleware, cfg.UploadDir)

	salesRepo := sales.NewPGRepository(dbpool)
	salesService := sales.NewService(salesRepo, productsService, auditLogger)
	salesHandler := sales.NewHandler(logger, salesService, rbacMiddleware)

	recycleService := recyclebin.NewService(purchasingService, salesService)
	recycleHandler := recyclebin.NewHandler(logger, recycleService, rbacMiddleware)

	exporter := report.NewExporter(purchasingService, redisClient)
	reportHandler := report.NewHandler(exporter, logger, rbacMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		ProductsHandler:   productsHandler,
		SuppliersHandler:  suppliersHandler,
		CustomersHandler:  customersHandler,
		PurchasingHandler: purchasingHandler,
		SalesHandler:      salesHandler,
		RecycleHandler:    recycleHandler,
		ReportHandler:     reportHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
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
