package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/procuredesk/procuredesk/internal/app"
	"github.com/procuredesk/procuredesk/internal/masterdata/products"
	"github.com/procuredesk/procuredesk/internal/observability"
	"github.com/procuredesk/procuredesk/internal/platform/cache"
	"github.com/procuredesk/procuredesk/internal/platform/db"
	"github.com/procuredesk/procuredesk/internal/purchasing"
	"github.com/procuredesk/procuredesk/internal/recyclebin"
	"github.com/procuredesk/procuredesk/jobs"
	"github.com/procuredesk/procuredesk/report"
)

// noopCatalog satisfies the purchasing catalog port for jobs that only
// read persisted purchases and never resolve product codes.
type noopCatalog struct{}

func (noopCatalog) ResolveCodes(_ context.Context, _ []string) (map[string]products.Product, error) {
	return map[string]products.Product{}, nil
}

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

	metrics := observability.NewMetrics()

	purchasingRepo := purchasing.NewPGRepository(pool)
	purchasingService := purchasing.NewService(purchasingRepo, noopCatalog{}, nil, nil)
	exporter := report.NewExporter(purchasingService, redisClient)

	purger := recyclebin.NewPGPurger(pool)

	purgeTask, err := jobs.NewRecyclePurgeTask(cfg.RecycleRetainDays)
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: jobs.NewReportWarmupHandler(exporter, metrics, logger)},
			{Type: jobs.TaskRecyclePurge, Handler: jobs.NewRecyclePurgeHandler(purger, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.RecyclePurgeCron, Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
