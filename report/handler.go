package report

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/shopledger/internal/platform/httpx"
	"github.com/odyssey-erp/shopledger/internal/sales"
)

// SaleReader loads a sale with its lines and payments.
type SaleReader interface {
	GetSale(ctx context.Context, id int64) (sales.SaleDetail, error)
}

// PDFRenderer converts HTML to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
	Ping(ctx context.Context) error
}

// Handler serves invoice documents.
type Handler struct {
	sales    SaleReader
	invoices *InvoiceRenderer
	pdf      PDFRenderer
	logger   *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(sales SaleReader, invoices *InvoiceRenderer, pdf PDFRenderer, logger *slog.Logger) *Handler {
	return &Handler{sales: sales, invoices: invoices, pdf: pdf, logger: logger}
}

// MountSaleRoutes registers invoice routes under /sales.
func (h *Handler) MountSaleRoutes(r chi.Router) {
	r.Get("/{id}/invoice", h.invoiceHTML)
	r.Get("/{id}/invoice.pdf", h.invoicePDF)
}

// MountRoutes registers renderer status under /reports.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/renderer", h.ping)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.pdf.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) (sales.SaleDetail, []byte, bool) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return sales.SaleDetail{}, nil, false
	}
	detail, err := h.sales.GetSale(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return sales.SaleDetail{}, nil, false
	}
	html, err := h.invoices.Render(detail)
	if err != nil {
		h.logger.Error("render invoice", slog.Int64("sale_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return sales.SaleDetail{}, nil, false
	}
	return detail, html, true
}

func (h *Handler) invoiceHTML(w http.ResponseWriter, r *http.Request) {
	_, html, ok := h.render(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	detail, html, ok := h.render(w, r)
	if !ok {
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render invoice pdf", slog.String("invoice", detail.InvoiceNumber), slog.Any("error", err))
		status := http.StatusBadGateway
		if errors.Is(err, ErrRendererDisabled) {
			status = http.StatusServiceUnavailable
		}
		httpx.Problem(w, status, http.StatusText(status), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="invoice-`+detail.InvoiceNumber+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
