package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	analytichttp "github.com/odyssey-erp/shopledger/internal/analytics/http"
	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/backup"
	"github.com/odyssey-erp/shopledger/internal/customers"
	"github.com/odyssey-erp/shopledger/internal/expenses"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/observability"
	"github.com/odyssey-erp/shopledger/internal/platform/httpx"
	"github.com/odyssey-erp/shopledger/internal/sales"
	"github.com/odyssey-erp/shopledger/internal/settings"
	"github.com/odyssey-erp/shopledger/jobs"
	"github.com/odyssey-erp/shopledger/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	InventoryHandler *inventory.Handler
	CustomerHandler  *customers.Handler
	PaymentHandler   *ar.Handler
	SalesHandler     *sales.Handler
	ExpenseHandler   *expenses.Handler
	AnalyticsHandler *analytichttp.Handler
	ReportHandler    *report.Handler
	BackupHandler    *backup.Handler
	SettingsHandler  *settings.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// HandlerParams builds the JSON handlers for every ledger service.
func (l *Ledger) HandlerParams(cfg *Config, logger *slog.Logger, pdf report.PDFRenderer, jobHandler *jobs.Handler) (RouterParams, error) {
	if logger == nil {
		logger = slog.Default()
	}
	money, err := report.NewMoneyFormatter(cfg.Currency)
	if err != nil {
		return RouterParams{}, err
	}
	invoices, err := report.NewInvoiceRenderer(cfg.ShopName, money)
	if err != nil {
		return RouterParams{}, err
	}
	return RouterParams{
		Logger:           logger,
		Config:           cfg,
		InventoryHandler: inventory.NewHandler(logger, l.Inventory),
		CustomerHandler:  customers.NewHandler(logger, l.Customers),
		PaymentHandler:   ar.NewHandler(logger, l.Payments),
		SalesHandler:     sales.NewHandler(logger, l.Sales),
		ExpenseHandler:   expenses.NewHandler(logger, l.Expenses),
		AnalyticsHandler: analytichttp.NewHandler(logger, l.Reports),
		ReportHandler:    report.NewHandler(l.Sales, invoices, pdf, logger),
		BackupHandler:    backup.NewHandler(logger, l.Backups),
		SettingsHandler:  settings.NewHandler(logger, l.Settings),
		JobHandler:       jobHandler,
		Metrics:          l.Metrics,
	}, nil
}

// NewRouter constructs the chi.Router with shop ledger defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/products", params.InventoryHandler.MountProductRoutes)
	r.Route("/inventory", params.InventoryHandler.MountRoutes)
	r.Route("/customers", func(r chi.Router) {
		params.CustomerHandler.MountRoutes(r)
		params.PaymentHandler.MountCustomerRoutes(r)
		params.SalesHandler.MountCustomerRoutes(r)
	})
	r.Route("/sales", func(r chi.Router) {
		params.SalesHandler.MountRoutes(r)
		params.PaymentHandler.MountSaleRoutes(r)
		if params.ReportHandler != nil {
			params.ReportHandler.MountSaleRoutes(r)
		}
	})
	r.Route("/payments", params.PaymentHandler.MountRoutes)
	r.Route("/expenses", params.ExpenseHandler.MountRoutes)
	r.Route("/reports", func(r chi.Router) {
		params.AnalyticsHandler.MountRoutes(r)
		if params.ReportHandler != nil {
			params.ReportHandler.MountRoutes(r)
		}
	})
	r.Route("/backup", params.BackupHandler.MountRoutes)
	r.Route("/settings", params.SettingsHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
