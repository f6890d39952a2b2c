package ar

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is derived from a sale's payments versus its total.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPartial PaymentStatus = "partial"
	StatusPending PaymentStatus = "pending"
)

// PaymentMethods accepted for sales. Credit is a sale method only.
var PaymentMethods = []string{"cash", "card", "upi", "credit"}

// DefaultPaymentMethod applies when a collection names no method.
const DefaultPaymentMethod = "cash"

// DeriveStatus computes the status of a sale from the amount collected so far.
func DeriveStatus(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartial
	default:
		return StatusPending
	}
}

// Payment is money collected against a sale or a customer's general balance.
type Payment struct {
	ID            int64           `db:"id" json:"id"`
	SaleID        *int64          `db:"sale_id" json:"sale_id"`
	CustomerID    *int64          `db:"customer_id" json:"customer_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate   time.Time       `db:"payment_date" json:"payment_date"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Notes         *string         `db:"notes" json:"notes"`
}

// PaymentInput describes a payment to record.
type PaymentInput struct {
	SaleID        *int64          `json:"sale_id"`
	CustomerID    *int64          `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card upi"`
	PaymentDate   time.Time       `json:"payment_date"`
	Notes         string          `json:"notes" validate:"max=500"`
}

// Balance is a customer's all-time sales minus payments.
type Balance struct {
	CustomerID int64           `db:"customer_id" json:"customer_id"`
	Name       string          `db:"name" json:"name"`
	Phone      *string         `db:"phone" json:"phone"`
	City       *string         `db:"city" json:"city"`
	TotalSales decimal.Decimal `db:"total_sales" json:"total_sales"`
	TotalPaid  decimal.Decimal `db:"total_paid" json:"total_paid"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`
}

func (b *Balance) round() {
	b.TotalSales = b.TotalSales.Round(2)
	b.TotalPaid = b.TotalPaid.Round(2)
	b.Balance = b.TotalSales.Sub(b.TotalPaid)
}
