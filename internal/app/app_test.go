package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/shopledger/internal/analytics"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/observability"
	"github.com/odyssey-erp/shopledger/internal/sales"
	"github.com/odyssey-erp/shopledger/internal/testing/dbtest"
	"github.com/odyssey-erp/shopledger/report"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SHOPLEDGER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DB_PATH", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "0")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("DB_PATH", "ledger.db")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 1, cfg.DBMaxOpenConns)
	require.Equal(t, "PKR", cfg.Currency)
	require.Equal(t, 10*time.Minute, cfg.AnalyticsCacheTTL)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("SHOP_NAME=Karachi Door House\nBACKUP_KEEP=3\n"), 0o600))
	t.Setenv("SHOPLEDGER_ENV_FILE", file)
	t.Setenv("BACKUP_KEEP", "7")
	t.Cleanup(func() { _ = os.Unsetenv("SHOP_NAME") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "Karachi Door House", cfg.ShopName)
	require.Equal(t, 7, cfg.BackupKeep)
}

func newTestRouter(t *testing.T) (http.Handler, *Ledger) {
	t.Helper()
	cfg := &Config{Currency: "PKR", ShopName: "Test Shop", AppRateLimit: 1000, AppRequestTimeout: 5 * time.Second}
	ledger := NewLedger(dbtest.Open(t), nil, cfg, nil, observability.NewMetrics())
	params, err := ledger.HandlerParams(cfg, nil, report.NewClient("", time.Second), nil)
	require.NoError(t, err)
	return NewRouter(params), ledger
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterServesLedgerFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := do(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = do(t, router, http.MethodPost, "/products", map[string]any{
		"name": "Brass Hinge", "category": "hardware", "retail_price": "250", "stock_quantity": 40,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var product inventory.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &product))
	require.EqualValues(t, 40, product.StockQuantity)

	rr = do(t, router, http.MethodPost, "/sales", map[string]any{
		"payment_method": "cash",
		"items":          []map[string]any{{"product_id": product.ID, "quantity": 4, "unit_price": "250"}},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var sale sales.Sale
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sale))
	require.True(t, strings.HasPrefix(sale.InvoiceNumber, sales.InvoicePrefix))

	rr = do(t, router, http.MethodGet, "/reports/summary?period=daily", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var summary analytics.SalesSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	require.True(t, summary.Revenue.Equal(decimal.NewFromInt(1000)), summary.Revenue.String())
	require.EqualValues(t, 1, summary.InvoiceCount)

	rr = do(t, router, http.MethodGet, "/sales/"+jsonID(sale.ID)+"/invoice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), sale.InvoiceNumber)

	rr = do(t, router, http.MethodGet, "/sales/"+jsonID(sale.ID)+"/invoice.pdf", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `shopledger_ledger_events_total{source="sales.create"} 1`)
}

func TestRouterMapsErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := do(t, router, http.MethodGet, "/products/999", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodPost, "/sales", map[string]any{"payment_method": "cash", "items": []any{}})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodPost, "/settings/security/verify", map[string]string{"pin": "1234"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSeederThroughLedger(t *testing.T) {
	_, ledger := newTestRouter(t)
	res, err := ledger.Seeder(nil).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Sales)

	credit, err := ledger.Reports.CustomerCreditSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, credit.Customers, 1)
	require.True(t, credit.TotalOutstanding.Equal(decimal.NewFromInt(17600)), credit.TotalOutstanding.String())
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
