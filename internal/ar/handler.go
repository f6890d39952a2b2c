package ar

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/shopledger/internal/platform/httpx"
)

// ServicePort is the subset of Service used by the HTTP handler.
type ServicePort interface {
	RecordPayment(ctx context.Context, input PaymentInput) (Payment, error)
	ListSalePayments(ctx context.Context, saleID int64) ([]Payment, error)
	ListCustomerPayments(ctx context.Context, customerID int64) ([]Payment, error)
	CustomerBalance(ctx context.Context, customerID int64) (Balance, error)
	ListOutstanding(ctx context.Context) ([]Balance, error)
}

// Handler manages payment and balance endpoints.
type Handler struct {
	logger  *slog.Logger
	service ServicePort
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /payments routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.recordPayment)
}

// MountCustomerRoutes registers balance routes under /customers.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	r.Get("/outstanding", h.listOutstanding)
	r.Get("/{id}/balance", h.customerBalance)
	r.Get("/{id}/payments", h.customerPayments)
}

// MountSaleRoutes registers payment routes under /sales.
func (h *Handler) MountSaleRoutes(r chi.Router) {
	r.Get("/{id}/payments", h.salePayments)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var input PaymentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	payment, err := h.service.RecordPayment(r.Context(), input)
	if err != nil {
		h.logger.Warn("record payment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) listOutstanding(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListOutstanding(r.Context())
	if err != nil {
		h.logger.Error("list outstanding", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) customerBalance(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	balance, err := h.service.CustomerBalance(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) customerPayments(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.ListCustomerPayments(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) salePayments(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.ListSalePayments(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}
