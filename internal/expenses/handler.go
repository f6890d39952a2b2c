package expenses

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/shopledger/internal/platform/httpx"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

// ServicePort is the subset of Service used by the HTTP handler.
type ServicePort interface {
	Create(ctx context.Context, in Input) (Expense, error)
	Update(ctx context.Context, id int64, in Input) (Expense, error)
	Delete(ctx context.Context, id int64) error
	ListRange(ctx context.Context, rng shared.DateRange) ([]Expense, error)
}

// Handler exposes expense endpoints.
type Handler struct {
	logger  *slog.Logger
	service ServicePort
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /expenses routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/categories", h.categories)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rng, err := httpx.RangeQuery(r, time.Now())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.ListRange(r.Context(), rng)
	if err != nil {
		h.logger.Error("list expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) categories(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, Categories)
}
