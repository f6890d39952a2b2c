package sales

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/shopledger/internal/platform/httpx"
)

// ServicePort is the subset of Service used by the HTTP handler.
type ServicePort interface {
	CreateSale(ctx context.Context, input CreateSaleInput) (Sale, error)
	DeleteSale(ctx context.Context, saleID int64) error
	GetSale(ctx context.Context, id int64) (SaleDetail, error)
	ListSales(ctx context.Context, filter ListFilter) (ListResult, error)
	ListByCustomer(ctx context.Context, customerID int64, page int) (ListResult, error)
}

// Handler exposes sales endpoints.
type Handler struct {
	logger  *slog.Logger
	service ServicePort
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

// MountCustomerRoutes registers sales lookups under /customers.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	r.Get("/{id}/sales", h.listByCustomer)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Page:    httpx.IntQuery(r, "page", 1),
		PerPage: httpx.IntQuery(r, "per_page", 20),
	}
	q := r.URL.Query()
	if q.Get("period") != "" || q.Get("from") != "" {
		rng, err := httpx.RangeQuery(r, time.Now())
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filter.Range = &rng
	}
	result, err := h.service.ListSales(r.Context(), filter)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateSaleInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.CreateSale(r.Context(), input)
	if err != nil {
		h.logger.Warn("create sale", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteSale(r.Context(), id); err != nil {
		h.logger.Warn("delete sale", slog.Int64("sale_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listByCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.ListByCustomer(r.Context(), id, httpx.IntQuery(r, "page", 1))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
