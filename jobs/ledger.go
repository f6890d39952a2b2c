package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/shopledger/internal/analytics"
	"github.com/odyssey-erp/shopledger/internal/backup"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

// StockService is the inventory surface the worker needs.
type StockService interface {
	SnapshotAllStock(ctx context.Context) (int, error)
	Reconcile(ctx context.Context) ([]inventory.Drift, error)
}

// BackupService writes backup files.
type BackupService interface {
	ExportToDir(ctx context.Context, dir string) (string, error)
}

// ReportService is warmed by TaskReportWarmup.
type ReportService interface {
	Range(period shared.Period, from, to time.Time) (shared.DateRange, error)
	SalesSummary(ctx context.Context, rng shared.DateRange) (analytics.SalesSummary, error)
	TopSellingProducts(ctx context.Context, rng shared.DateRange, limit int) ([]analytics.ProductSales, error)
	CustomerCreditSummary(ctx context.Context) (analytics.CreditSummary, error)
}

// Recorder counts finished task runs.
type Recorder interface {
	JobFinished(task string, err error)
}

// LedgerJobs handles the ledger maintenance tasks.
type LedgerJobs struct {
	Stock      StockService
	Backups    BackupService
	Reports    ReportService
	BackupDir  string
	KeepBackup int
	Logger     *slog.Logger
	Metrics    Recorder
}

// Handlers lists the task handlers to register on the worker.
func (j *LedgerJobs) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskInventorySnapshot, Handler: j.track(TaskInventorySnapshot, j.handleSnapshot)},
		{Type: TaskInventoryReconcile, Handler: j.track(TaskInventoryReconcile, j.handleReconcile)},
		{Type: TaskBackupExport, Handler: j.track(TaskBackupExport, j.handleBackup)},
		{Type: TaskReportWarmup, Handler: j.track(TaskReportWarmup, j.handleWarmup)},
	}
}

func (j *LedgerJobs) track(task string, fn func(context.Context, *slog.Logger) error) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		payload, err := decodePayload(t)
		if err != nil {
			return fmt.Errorf("%s: decode payload: %v: %w", task, err, asynq.SkipRetry)
		}
		logger := j.logger().With(slog.String("task", task), slog.String("request_id", payload.RequestID))
		start := time.Now()
		err = fn(ctx, logger)
		if j.Metrics != nil {
			j.Metrics.JobFinished(task, err)
		}
		if err != nil {
			logger.Error("task failed", slog.Any("error", err))
			return err
		}
		logger.Info("task finished", slog.Duration("elapsed", time.Since(start)))
		return nil
	}
}

func (j *LedgerJobs) handleSnapshot(ctx context.Context, logger *slog.Logger) error {
	if j.Stock == nil {
		return errors.New("inventory service not configured")
	}
	n, err := j.Stock.SnapshotAllStock(ctx)
	if err != nil {
		return err
	}
	logger.Info("stock snapshot recorded", slog.Int("products", n))
	return nil
}

func (j *LedgerJobs) handleReconcile(ctx context.Context, logger *slog.Logger) error {
	if j.Stock == nil {
		return errors.New("inventory service not configured")
	}
	drift, err := j.Stock.Reconcile(ctx)
	if err != nil {
		return err
	}
	for _, d := range drift {
		logger.Warn("stock drift detected",
			slog.Int64("product_id", d.ProductID),
			slog.Int64("stock_quantity", d.StockQuantity),
			slog.Int64("history_total", d.HistoryTotal))
	}
	return nil
}

func (j *LedgerJobs) handleBackup(ctx context.Context, logger *slog.Logger) error {
	if j.Backups == nil || j.BackupDir == "" {
		return errors.New("backup directory not configured")
	}
	path, err := j.Backups.ExportToDir(ctx, j.BackupDir)
	if err != nil {
		return err
	}
	removed, err := PruneBackups(j.BackupDir, j.KeepBackup)
	if err != nil {
		logger.Warn("prune backups", slog.Any("error", err))
	}
	logger.Info("backup exported", slog.String("path", path), slog.Int("pruned", removed))
	return nil
}

func (j *LedgerJobs) handleWarmup(ctx context.Context, logger *slog.Logger) error {
	if j.Reports == nil {
		return errors.New("report service not configured")
	}
	for _, period := range []shared.Period{shared.PeriodDaily, shared.PeriodWeekly, shared.PeriodMonthly} {
		rng, err := j.Reports.Range(period, time.Time{}, time.Time{})
		if err != nil {
			return err
		}
		if _, err := j.Reports.SalesSummary(ctx, rng); err != nil {
			return fmt.Errorf("warm %s summary: %w", period, err)
		}
		if _, err := j.Reports.TopSellingProducts(ctx, rng, analytics.DefaultTopProducts); err != nil {
			return fmt.Errorf("warm %s top products: %w", period, err)
		}
	}
	_, err := j.Reports.CustomerCreditSummary(ctx)
	return err
}

func (j *LedgerJobs) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// PruneBackups keeps the newest keep backup files in dir and deletes the rest.
// A non-positive keep disables pruning.
func PruneBackups(dir string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backup.FilePrefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= keep {
		return 0, nil
	}
	// Names embed a sortable UTC timestamp.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	removed := 0
	for _, name := range names[keep:] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
