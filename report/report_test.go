package report

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/sales"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

func sampleDetail() sales.SaleDetail {
	name := "Riaz <Construction>"
	return sales.SaleDetail{
		Sale: sales.Sale{
			ID:            3,
			InvoiceNumber: "INV-00003",
			TotalAmount:   decimal.NewFromInt(38000),
			PaymentMethod: "credit",
			PaymentStatus: ar.StatusPartial,
			SaleDate:      time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC),
		},
		CustomerName: &name,
		Items: []sales.ItemLine{{
			SaleItem:    sales.SaleItem{Quantity: 2, UnitPrice: decimal.NewFromInt(19000), TotalPrice: decimal.NewFromInt(38000)},
			ProductName: "Premium Oak Door",
		}},
		Paid: decimal.NewFromInt(10000),
		Due:  decimal.NewFromInt(28000),
	}
}

func newRenderer(t *testing.T) *InvoiceRenderer {
	t.Helper()
	money, err := NewMoneyFormatter("PKR")
	require.NoError(t, err)
	r, err := NewInvoiceRenderer("Al-Noor Door Hardware", money)
	require.NoError(t, err)
	return r
}

func TestMoneyFormatterGroupsDigits(t *testing.T) {
	money, err := NewMoneyFormatter("")
	require.NoError(t, err)
	out := money.Format(decimal.NewFromInt(1234567))
	require.True(t, strings.HasSuffix(out, " 1,234,567.00"), out)

	_, err = NewMoneyFormatter("XYZW")
	require.Error(t, err)
}

func TestInvoiceRender(t *testing.T) {
	html, err := newRenderer(t).Render(sampleDetail())
	require.NoError(t, err)
	body := string(html)
	require.Contains(t, body, "Invoice INV-00003")
	require.Contains(t, body, "Premium Oak Door")
	require.Contains(t, body, "38,000.00")
	require.Contains(t, body, "28,000.00")
	require.Contains(t, body, "Riaz &lt;Construction&gt;")
	require.Contains(t, body, "14 Feb 2026 10:30")
}

func TestInvoiceRenderWalkIn(t *testing.T) {
	detail := sampleDetail()
	detail.CustomerName = nil
	html, err := newRenderer(t).Render(detail)
	require.NoError(t, err)
	require.Contains(t, string(html), "<strong>"+WalkInLabel+"</strong>")
}

func TestClientRenderHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, paperWidth, r.FormValue("paperWidth"))
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		require.Equal(t, "index.html", header.Filename)
		content, _ := io.ReadAll(file)
		require.Equal(t, "<p>hi</p>", string(content))
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	data, err := NewClient(srv.URL+"/", time.Second).RenderHTML(context.Background(), []byte("<p>hi</p>"))
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7", string(data))
}

func TestClientDisabledAndFailing(t *testing.T) {
	_, err := NewClient("", 0).RenderHTML(context.Background(), nil)
	require.ErrorIs(t, err, ErrRendererDisabled)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	_, err = NewClient(srv.URL, time.Second).RenderHTML(context.Background(), []byte("x"))
	require.ErrorContains(t, err, "status 503")
	require.ErrorContains(t, err, "chromium crashed")
}

type stubSales struct{}

func (stubSales) GetSale(_ context.Context, id int64) (sales.SaleDetail, error) {
	if id != 3 {
		return sales.SaleDetail{}, &shared.NotFound{Entity: "sale", ID: id}
	}
	return sampleDetail(), nil
}

type stubPDF struct{ err error }

func (s stubPDF) RenderHTML(context.Context, []byte) ([]byte, error) { return []byte("%PDF"), s.err }
func (s stubPDF) Ping(context.Context) error                         { return s.err }

func TestInvoiceHandlers(t *testing.T) {
	h := NewHandler(stubSales{}, newRenderer(t), stubPDF{}, slog.Default())
	r := chi.NewRouter()
	r.Route("/sales", h.MountSaleRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/3/invoice", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/3/invoice.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "invoice-INV-00003.pdf")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/9/invoice", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvoicePDFWithoutRenderer(t *testing.T) {
	h := NewHandler(stubSales{}, newRenderer(t), NewClient("", 0), slog.Default())
	r := chi.NewRouter()
	r.Route("/sales", h.MountSaleRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/3/invoice.pdf", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
