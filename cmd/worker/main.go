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

	"github.com/odyssey-erp/shopledger/internal/app"
	"github.com/odyssey-erp/shopledger/internal/observability"
	"github.com/odyssey-erp/shopledger/jobs"
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
	if !cfg.CacheEnabled() {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	ledger, err := app.OpenLedger(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("open ledger", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Warn("close ledger", slog.Any("error", err))
		}
	}()

	ledgerJobs := &jobs.LedgerJobs{
		Stock:      ledger.Inventory,
		Backups:    ledger.Backups,
		Reports:    ledger.Reports,
		BackupDir:  cfg.BackupDir,
		KeepBackup: cfg.BackupKeep,
		Logger:     logger,
		Metrics:    metrics,
	}

	schedule := []struct {
		spec string
		task string
	}{
		{cfg.SnapshotCron, jobs.TaskInventorySnapshot},
		{cfg.BackupCron, jobs.TaskBackupExport},
		{cfg.ReconcileCron, jobs.TaskInventoryReconcile},
		{cfg.WarmupCron, jobs.TaskReportWarmup},
	}
	var cron []jobs.CronRegistration
	for _, entry := range schedule {
		if entry.spec == "" {
			continue
		}
		task, err := jobs.NewCronTask(entry.task)
		if err != nil {
			logger.Error("build cron task", slog.String("task", entry.task), slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: entry.spec, Task: task})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerParallel,
		Handlers:    ledgerJobs.Handlers(),
		Cron:        cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsAddr := cfg.WorkerMetrics; metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
