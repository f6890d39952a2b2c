package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/shopledger/internal/analytics"
	"github.com/odyssey-erp/shopledger/internal/backup"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

type stubStock struct {
	snapshots int
	drift     []inventory.Drift
	err       error
}

func (s *stubStock) SnapshotAllStock(context.Context) (int, error) {
	s.snapshots++
	return 3, s.err
}

func (s *stubStock) Reconcile(context.Context) ([]inventory.Drift, error) {
	return s.drift, s.err
}

type stubBackups struct{ calls int }

func (s *stubBackups) ExportToDir(_ context.Context, dir string) (string, error) {
	s.calls++
	name := filepath.Join(dir, backup.FilePrefix+"_20261018T0000"+string(rune('0'+s.calls))+"Z_abcd1234.json")
	return name, os.WriteFile(name, []byte("{}"), 0o600)
}

type stubReports struct {
	periods []shared.Period
	credit  int
}

func (s *stubReports) Range(period shared.Period, from, to time.Time) (shared.DateRange, error) {
	s.periods = append(s.periods, period)
	return shared.ResolveRange(period, from, to, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
}

func (s *stubReports) SalesSummary(context.Context, shared.DateRange) (analytics.SalesSummary, error) {
	return analytics.SalesSummary{}, nil
}

func (s *stubReports) TopSellingProducts(context.Context, shared.DateRange, int) ([]analytics.ProductSales, error) {
	return nil, nil
}

func (s *stubReports) CustomerCreditSummary(context.Context) (analytics.CreditSummary, error) {
	s.credit++
	return analytics.CreditSummary{}, nil
}

type recorder struct {
	runs map[string][]error
}

func (r *recorder) JobFinished(task string, err error) {
	if r.runs == nil {
		r.runs = map[string][]error{}
	}
	r.runs[task] = append(r.runs[task], err)
}

func handlerFor(t *testing.T, jobs *LedgerJobs, taskType string) asynq.HandlerFunc {
	t.Helper()
	for _, h := range jobs.Handlers() {
		if h.Type == taskType {
			return h.Handler
		}
	}
	t.Fatalf("no handler for %s", taskType)
	return nil
}

func newTask(t *testing.T, taskType string) *asynq.Task {
	t.Helper()
	task, err := NewTask(taskType, "test", time.Now())
	require.NoError(t, err)
	return task
}

func TestNewTaskCarriesRequestID(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.FixedZone("PKT", 5*3600))
	task, err := NewTask(TaskBackupExport, "manual", at)
	require.NoError(t, err)
	require.Equal(t, TaskBackupExport, task.Type())

	var payload Payload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.NotEmpty(t, payload.RequestID)
	require.Equal(t, "manual", payload.Reason)
	require.Equal(t, time.UTC, payload.RequestedAt.Location())
	require.True(t, payload.RequestedAt.Equal(at))
}

func TestLedgerJobsHandlersCoverEnqueueableTasks(t *testing.T) {
	jobs := &LedgerJobs{}
	seen := map[string]bool{}
	for _, h := range jobs.Handlers() {
		require.NotNil(t, h.Handler)
		seen[h.Type] = true
	}
	require.Equal(t, Enqueueable, seen)
}

func TestSnapshotAndReconcileRecordRuns(t *testing.T) {
	stock := &stubStock{drift: []inventory.Drift{{ProductID: 7, StockQuantity: 4, HistoryTotal: 5}}}
	rec := &recorder{}
	jobs := &LedgerJobs{Stock: stock, Metrics: rec}
	ctx := context.Background()

	require.NoError(t, handlerFor(t, jobs, TaskInventorySnapshot)(ctx, newTask(t, TaskInventorySnapshot)))
	require.NoError(t, handlerFor(t, jobs, TaskInventoryReconcile)(ctx, newTask(t, TaskInventoryReconcile)))
	require.Equal(t, 1, stock.snapshots)
	require.Equal(t, []error{nil}, rec.runs[TaskInventorySnapshot])
	require.Equal(t, []error{nil}, rec.runs[TaskInventoryReconcile])

	stock.err = errors.New("disk full")
	err := handlerFor(t, jobs, TaskInventorySnapshot)(ctx, newTask(t, TaskInventorySnapshot))
	require.ErrorContains(t, err, "disk full")
	require.Len(t, rec.runs[TaskInventorySnapshot], 2)
	require.Error(t, rec.runs[TaskInventorySnapshot][1])
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	jobs := &LedgerJobs{Stock: &stubStock{}}
	task := asynq.NewTask(TaskInventorySnapshot, []byte("not json"))
	err := handlerFor(t, jobs, TaskInventorySnapshot)(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestBackupJobRequiresDirectory(t *testing.T) {
	jobs := &LedgerJobs{Backups: &stubBackups{}}
	err := handlerFor(t, jobs, TaskBackupExport)(context.Background(), newTask(t, TaskBackupExport))
	require.Error(t, err)
}

func TestBackupJobPrunesOldFiles(t *testing.T) {
	dir := t.TempDir()
	backups := &stubBackups{}
	jobs := &LedgerJobs{Backups: backups, BackupDir: dir, KeepBackup: 2}
	handler := handlerFor(t, jobs, TaskBackupExport)
	for i := 0; i < 4; i++ {
		require.NoError(t, handler(context.Background(), newTask(t, TaskBackupExport)))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Contains(t, entries[0].Name(), "T00003Z")
	require.Contains(t, entries[1].Name(), "T00004Z")
}

func TestPruneBackupsIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"shopledger_backup_20261001T000000Z_a.json",
		"shopledger_backup_20261002T000000Z_b.json",
		"shopledger_backup_20261003T000000Z_c.json",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	removed, err := PruneBackups(dir, 1)
	require.NoError(t, err)
	require.Equal(t, 2, removed)
	require.FileExists(t, filepath.Join(dir, "shopledger_backup_20261003T000000Z_c.json"))
	require.FileExists(t, filepath.Join(dir, "notes.txt"))

	removed, err = PruneBackups(dir, 0)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestWarmupVisitsStandardPeriods(t *testing.T) {
	reports := &stubReports{}
	jobs := &LedgerJobs{Reports: reports}
	require.NoError(t, handlerFor(t, jobs, TaskReportWarmup)(context.Background(), newTask(t, TaskReportWarmup)))
	require.Equal(t, []shared.Period{shared.PeriodDaily, shared.PeriodWeekly, shared.PeriodMonthly}, reports.periods)
	require.Equal(t, 1, reports.credit)
}

type stubEnqueuer struct {
	got []string
}

func (s *stubEnqueuer) Enqueue(_ context.Context, taskType, reason string) (*asynq.TaskInfo, error) {
	if !Enqueueable[taskType] {
		return nil, ErrUnknownTask
	}
	s.got = append(s.got, taskType+":"+reason)
	return &asynq.TaskInfo{ID: "abc", Type: taskType, Queue: QueueDefault}, nil
}

func TestHandlerEnqueue(t *testing.T) {
	enq := &stubEnqueuer{}
	r := chi.NewRouter()
	NewHandler(nil, enq, nil).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/backup:export", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.JSONEq(t, `{"id":"abc","type":"backup:export","queue":"default"}`, rr.Body.String())
	require.Equal(t, []string{"backup:export:manual"}, enq.got)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/email:send", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
