// Package backup exports the whole ledger as one JSON document and restores it.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/customers"
	"github.com/odyssey-erp/shopledger/internal/expenses"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/sales"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

// FormatVersion is written into every export. Restore accepts any 1.x document.
const FormatVersion = "1.0.0"

// Meta describes an export.
type Meta struct {
	ExportedAt time.Time `json:"exportedAt"`
	Version    string    `json:"version"`
}

// Document is the full-store backup payload.
type Document struct {
	Meta         Meta                     `json:"meta"`
	Products     []inventory.Product      `json:"products"`
	Customers    []customers.Customer     `json:"customers"`
	Sales        []sales.Sale             `json:"sales"`
	SaleItems    []sales.SaleItem         `json:"saleItems"`
	Payments     []ar.Payment             `json:"payments"`
	Expenses     []expenses.Expense       `json:"expenses"`
	StockHistory []inventory.StockHistory `json:"stockHistory"`
}

// Counts reports how many rows of each table a restore wrote.
type Counts struct {
	Products     int `json:"products"`
	Customers    int `json:"customers"`
	Sales        int `json:"sales"`
	SaleItems    int `json:"saleItems"`
	Payments     int `json:"payments"`
	Expenses     int `json:"expenses"`
	StockHistory int `json:"stockHistory"`
}

// Decode parses a backup document, rejecting unknown fields.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: backup document: %v", shared.ErrValidation, err)
	}
	return doc, doc.Check()
}

// Check rejects documents that cannot be a ledger export.
func (d Document) Check() error {
	verr := &shared.ValidationError{}
	if !strings.HasPrefix(d.Meta.Version, "1.") {
		verr.Add("meta.version", "unsupported backup version "+d.Meta.Version)
	}
	if d.Products == nil {
		verr.Add("products", "is required")
	}
	if d.Customers == nil {
		verr.Add("customers", "is required")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (d *Document) normalize() {
	if d.Products == nil {
		d.Products = []inventory.Product{}
	}
	if d.Customers == nil {
		d.Customers = []customers.Customer{}
	}
	if d.Sales == nil {
		d.Sales = []sales.Sale{}
	}
	if d.SaleItems == nil {
		d.SaleItems = []sales.SaleItem{}
	}
	if d.Payments == nil {
		d.Payments = []ar.Payment{}
	}
	if d.Expenses == nil {
		d.Expenses = []expenses.Expense{}
	}
	if d.StockHistory == nil {
		d.StockHistory = []inventory.StockHistory{}
	}
}
