package backup

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/shopledger/internal/platform/httpx"
)

const maxRestoreBytes = 64 << 20

// ServicePort is the subset of Service used by the HTTP handler.
type ServicePort interface {
	Export(ctx context.Context) (Document, error)
	Restore(ctx context.Context, doc Document) (Counts, error)
}

// Handler exposes backup download and restore upload.
type Handler struct {
	logger  *slog.Logger
	service ServicePort
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /backup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.download)
	r.Post("/restore", h.restore)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Export(r.Context())
	if err != nil {
		h.logger.Error("export backup", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+FilePrefix+`_`+doc.Meta.ExportedAt.Format("20060102T150405Z")+`.json"`)
	if err := Encode(w, doc); err != nil {
		h.logger.Error("encode backup", slog.Any("error", err))
	}
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	doc, err := Decode(http.MaxBytesReader(w, r.Body, maxRestoreBytes))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	counts, err := h.service.Restore(r.Context(), doc)
	if err != nil {
		h.logger.Error("restore backup", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, counts)
}
