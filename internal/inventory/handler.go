package inventory

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/shopledger/internal/platform/httpx"
)

// ServicePort is the subset of Service used by the HTTP handler.
type ServicePort interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	ListLowStock(ctx context.Context) ([]Product, error)
	ListHistory(ctx context.Context, productID int64) ([]StockHistory, error)
	RecentMovements(ctx context.Context, limit int) ([]MovementEntry, error)
	AdjustStock(ctx context.Context, input AdjustInput) (Product, error)
	SnapshotAllStock(ctx context.Context) (int, error)
	Reconcile(ctx context.Context) ([]Drift, error)
}

// Handler wires HTTP endpoints for products and the stock ledger.
type Handler struct {
	logger  *slog.Logger
	service ServicePort
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountProductRoutes registers /products routes.
func (h *Handler) MountProductRoutes(r chi.Router) {
	r.Get("/", h.listProducts)
	r.Post("/", h.createProduct)
	r.Get("/low-stock", h.listLowStock)
	r.Get("/{id}", h.getProduct)
	r.Put("/{id}", h.updateProduct)
	r.Delete("/{id}", h.deleteProduct)
	r.Post("/{id}/adjust", h.adjustStock)
	r.Get("/{id}/history", h.listHistory)
}

// MountRoutes registers /inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/snapshot", h.snapshot)
	r.Get("/movements", h.recentMovements)
	r.Get("/reconcile", h.reconcile)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), ProductFilter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
	})
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var input CreateProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		h.fail(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input ProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), id, input)
	if err != nil {
		h.fail(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListLowStock(r.Context())
	if err != nil {
		h.fail(w, "list low stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

type adjustRequest struct {
	Delta int64        `json:"delta"`
	Type  MovementType `json:"type"`
	Notes string       `json:"notes"`
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Type == "" {
		req.Type = MovementAdjustment
	}
	product, err := h.service.AdjustStock(r.Context(), AdjustInput{
		ProductID: id,
		Delta:     req.Delta,
		Type:      req.Type,
		Notes:     req.Notes,
	})
	if err != nil {
		h.fail(w, "adjust stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.ListHistory(r.Context(), id)
	if err != nil {
		h.fail(w, "list stock history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.SnapshotAllStock(r.Context())
	if err != nil {
		h.fail(w, "snapshot stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"products": count})
}

func (h *Handler) recentMovements(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.RecentMovements(r.Context(), httpx.IntQuery(r, "limit", RecentMovementLimit))
	if err != nil {
		h.fail(w, "recent movements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	drift, err := h.service.Reconcile(r.Context())
	if err != nil {
		h.fail(w, "reconcile stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"consistent": len(drift) == 0, "drift": drift})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
