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

	"github.com/odyssey-erp/shopledger/cmd/shopledger/cli"
	"github.com/odyssey-erp/shopledger/internal/app"
	"github.com/odyssey-erp/shopledger/internal/observability"
	"github.com/odyssey-erp/shopledger/jobs"
	"github.com/odyssey-erp/shopledger/report"
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

	command := "serve"
	var args []string
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	if command == "jobs" {
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr, os.Stdout, os.Stderr)
		code := jobsCLI.Run(ctx, args)
		_ = jobsCLI.Close()
		os.Exit(code)
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

	if command != "serve" {
		ledgerCLI := &cli.LedgerCLI{
			Seeder:    ledger.Seeder(logger),
			Backups:   ledger.Backups,
			Stock:     ledger.Inventory,
			BackupDir: cfg.BackupDir,
			Stdout:    os.Stdout,
			Stderr:    os.Stderr,
		}
		code := ledgerCLI.Run(ctx, command, args)
		if code != 0 {
			_ = ledger.Close()
			os.Exit(code)
		}
		return
	}

	if err := serve(ctx, cfg, logger, ledger); err != nil {
		logger.Error("http server", slog.Any("error", err))
		_ = ledger.Close()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger, ledger *app.Ledger) error {
	var jobHandler *jobs.Handler
	if cfg.CacheEnabled() {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		client := jobs.NewClient(redisOpts)
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, client, logger)
	}

	pdf := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	params, err := ledger.HandlerParams(cfg, logger, pdf, jobHandler)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      app.NewRouter(params),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("db", cfg.DBPath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
