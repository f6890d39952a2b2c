// Package analytichttp serves period reports over HTTP.
package analytichttp

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/odyssey-erp/shopledger/internal/analytics"
	"github.com/odyssey-erp/shopledger/internal/analytics/export"
	"github.com/odyssey-erp/shopledger/internal/platform/httpx"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

const requestTimeout = 5 * time.Second

// ReportService defines the report contract used by the handler.
type ReportService interface {
	SalesSummary(ctx context.Context, rng shared.DateRange) (analytics.SalesSummary, error)
	TopSellingProducts(ctx context.Context, rng shared.DateRange, limit int) ([]analytics.ProductSales, error)
	ExpenseSummary(ctx context.Context, rng shared.DateRange) (analytics.ExpenseSummary, error)
	CustomerCreditSummary(ctx context.Context) (analytics.CreditSummary, error)
}

// Handler exposes /reports endpoints.
type Handler struct {
	logger  *slog.Logger
	service ReportService
	csvPool sync.Pool
	now     func() time.Time
}

// NewHandler constructs the report HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService) *Handler {
	h := &Handler{logger: logger, service: service, now: time.Now}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	rng, err := httpx.RangeQuery(r, h.now())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	summary, err := h.service.SalesSummary(ctx, rng)
	if err != nil {
		h.serverError(w, "sales summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleSummaryCSV(w http.ResponseWriter, r *http.Request) {
	rng, err := httpx.RangeQuery(r, h.now())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	summary, err := h.service.SalesSummary(ctx, rng)
	if err != nil {
		h.serverError(w, "sales summary", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer h.csvPool.Put(buf)
	if err := export.WriteSummaryCSV(buf, summary); err != nil {
		h.serverError(w, "write csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sales-summary-`+rng.FromDate()+`-`+rng.ToDate()+`.csv"`)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	rng, err := httpx.RangeQuery(r, h.now())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit := httpx.IntQuery(r, "limit", analytics.DefaultTopProducts)
	rows, err := h.service.TopSellingProducts(r.Context(), rng, limit)
	if err != nil {
		h.serverError(w, "top products", err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := export.WriteTopProductsCSV(w, rows); err != nil {
			h.logger.Error("write top products csv", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleExpenses(w http.ResponseWriter, r *http.Request) {
	rng, err := httpx.RangeQuery(r, h.now())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.ExpenseSummary(r.Context(), rng)
	if err != nil {
		h.serverError(w, "expense summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleCredit(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.CustomerCreditSummary(r.Context())
	if err != nil {
		h.serverError(w, "credit summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Error("report request failed", slog.String("op", op), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
