// Package report renders printable documents such as invoices.
package report

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/odyssey-erp/shopledger/internal/sales"
)

//go:embed templates/invoice.html
var templateFS embed.FS

// WalkInLabel names the buyer on sales without a customer record.
const WalkInLabel = "Walk-in"

// InvoiceRenderer turns sale details into invoice HTML.
type InvoiceRenderer struct {
	shop string
	tmpl *template.Template
}

type invoiceView struct {
	Shop     string
	Customer string
	Sale     sales.SaleDetail
}

// NewInvoiceRenderer parses the invoice template for a shop name and currency.
func NewInvoiceRenderer(shop string, money MoneyFormatter) (*InvoiceRenderer, error) {
	tmpl, err := template.New("invoice.html").Funcs(template.FuncMap{
		"money": money.Format,
		"date":  func(t time.Time) string { return t.UTC().Format("02 Jan 2006 15:04") },
	}).ParseFS(templateFS, "templates/invoice.html")
	if err != nil {
		return nil, err
	}
	return &InvoiceRenderer{shop: shop, tmpl: tmpl}, nil
}

// Render produces the invoice document for detail.
func (r *InvoiceRenderer) Render(detail sales.SaleDetail) ([]byte, error) {
	customer := WalkInLabel
	if detail.CustomerName != nil && *detail.CustomerName != "" {
		customer = *detail.CustomerName
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, invoiceView{Shop: r.shop, Customer: customer, Sale: detail}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
