package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

// MethodCredit marks a sale sold on account.
const MethodCredit = "credit"

// InvoicePrefix starts every generated invoice number.
const InvoicePrefix = "INV-"

// FormatInvoiceNumber renders a sequence as INV-00042.
func FormatInvoiceNumber(seq int64) string {
	return fmt.Sprintf("%s%05d", InvoicePrefix, seq)
}

// Sale is the header of a completed sale.
type Sale struct {
	ID            int64            `db:"id" json:"id"`
	InvoiceNumber string           `db:"invoice_number" json:"invoice_number"`
	CustomerID    *int64           `db:"customer_id" json:"customer_id"`
	TotalAmount   decimal.Decimal  `db:"total_amount" json:"total_amount"`
	PaymentMethod string           `db:"payment_method" json:"payment_method"`
	PaymentStatus ar.PaymentStatus `db:"payment_status" json:"payment_status"`
	SaleDate      time.Time        `db:"sale_date" json:"sale_date"`
	Notes         *string          `db:"notes" json:"notes"`
}

// SaleItem is an immutable line of a sale. UnitPrice is the price at sale time.
type SaleItem struct {
	ID         int64           `db:"id" json:"id"`
	SaleID     int64           `db:"sale_id" json:"sale_id"`
	ProductID  int64           `db:"product_id" json:"product_id"`
	Quantity   int64           `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
}

// ItemLine is a sale item with product details for display.
type ItemLine struct {
	SaleItem
	ProductName string `db:"product_name" json:"product_name"`
	Category    string `db:"category" json:"category"`
}

// SaleSummary is a sale header as shown in listings.
type SaleSummary struct {
	Sale
	CustomerName *string `db:"customer_name" json:"customer_name"`
	ItemCount    int     `db:"item_count" json:"item_count"`
}

// SaleDetail is a sale with its lines and collections.
type SaleDetail struct {
	Sale
	CustomerName  *string         `json:"customer_name"`
	CustomerPhone *string         `json:"customer_phone"`
	Items         []ItemLine      `json:"items"`
	Payments      []ar.Payment    `json:"payments"`
	Paid          decimal.Decimal `json:"paid"`
	Due           decimal.Decimal `json:"due"`
}

// Guest identifies a walk-in buyer without a customer record.
type Guest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Phone string `json:"phone" validate:"phone"`
}

// Note renders the guest into the line stored in the sale notes.
func (g Guest) Note() string {
	name := strings.TrimSpace(g.Name)
	if phone := strings.TrimSpace(g.Phone); phone != "" {
		return fmt.Sprintf("Guest: %s (%s)", name, phone)
	}
	return "Guest: " + name
}

// ItemInput is one cart line.
type ItemInput struct {
	ProductID int64           `json:"product_id" validate:"required"`
	Quantity  int64           `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// LineTotal returns quantity × unit price. Unit prices carry at most two
// decimals, so the product is exact.
func (i ItemInput) LineTotal() decimal.Decimal {
	return shared.RoundMoney(i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity)))
}

// InitialPayment is a payment taken when the sale is created.
type InitialPayment struct {
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=cash card upi"`
	Notes         string          `json:"notes" validate:"max=500"`
}

// CreateSaleInput describes a sale to book.
type CreateSaleInput struct {
	InvoiceNumber string           `json:"invoice_number" validate:"max=40"`
	CustomerID    *int64           `json:"customer_id"`
	Guest         *Guest           `json:"guest" validate:"omitempty"`
	PaymentMethod string           `json:"payment_method" validate:"required,oneof=cash card upi credit"`
	SaleDate      time.Time        `json:"sale_date"`
	Notes         string           `json:"notes" validate:"max=1000"`
	Items         []ItemInput      `json:"items" validate:"required,min=1,dive"`
	Payments      []InitialPayment `json:"payments" validate:"omitempty,dive"`
	// DeferPayment leaves a non-credit sale without explicit payments unpaid
	// instead of settling it in full.
	DeferPayment bool `json:"defer_payment"`
}

// Total sums the line totals.
func (in CreateSaleInput) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range in.Items {
		total = total.Add(item.LineTotal())
	}
	return shared.RoundMoney(total)
}

// StoredNotes folds the guest identity in front of the free-text notes.
func (in CreateSaleInput) StoredNotes() string {
	notes := strings.TrimSpace(in.Notes)
	if in.Guest == nil {
		return notes
	}
	if notes == "" {
		return in.Guest.Note()
	}
	return in.Guest.Note() + "\n" + notes
}

// ListFilter narrows sale listings.
type ListFilter struct {
	Range      *shared.DateRange
	CustomerID int64
	Page       int
	PerPage    int
}

// ListResult is one page of sales.
type ListResult struct {
	Sales      []SaleSummary     `json:"sales"`
	Pagination shared.Pagination `json:"pagination"`
}

func saleNote(invoice string) string {
	return "Sale #" + invoice
}

func reversalNote(invoice string) string {
	return "Sale #" + invoice + " deleted"
}
