package settings

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/shopledger/internal/platform/httpx"
)

// ServicePort is the subset of Service used by the HTTP handler.
type ServicePort interface {
	GetPreferences(ctx context.Context) (Preferences, error)
	UpdatePreferences(ctx context.Context, values map[string]string) (Preferences, error)
	SecurityStatus(ctx context.Context) (Security, error)
	EnableLock(ctx context.Context, in PINInput) error
	DisableLock(ctx context.Context) error
	VerifyPIN(ctx context.Context, in PINInput) error
}

// Handler exposes /settings endpoints.
type Handler struct {
	logger  *slog.Logger
	service ServicePort
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service ServicePort) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.getPreferences)
	r.Put("/", h.updatePreferences)
	r.Route("/security", func(r chi.Router) {
		r.Get("/", h.status)
		r.Post("/lock", h.enableLock)
		r.Delete("/lock", h.disableLock)
		r.Post("/verify", h.verify)
	})
}

func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.service.GetPreferences(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prefs)
}

func (h *Handler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := httpx.DecodeJSON(r, &values); err != nil {
		httpx.RespondError(w, err)
		return
	}
	prefs, err := h.service.UpdatePreferences(r.Context(), values)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prefs)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.SecurityStatus(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) enableLock(w http.ResponseWriter, r *http.Request) {
	var in PINInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.EnableLock(r.Context(), in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) disableLock(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DisableLock(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	var in PINInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.VerifyPIN(r.Context(), in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
