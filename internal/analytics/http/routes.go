package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers report endpoints under the caller's /reports prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/summary", h.handleSummary)
	r.Get("/top-products", h.handleTopProducts)
	r.Get("/expenses", h.handleExpenses)
	r.Get("/credit", h.handleCredit)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/summary.csv", h.handleSummaryCSV)
	})
}
