package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/shopledger/internal/ar"
)

// DefaultTopProducts is the ranking size used when no limit is given.
const DefaultTopProducts = 5

// MethodTotal aggregates sales by payment method.
type MethodTotal struct {
	Method string          `db:"payment_method" json:"payment_method"`
	Count  int64           `db:"count" json:"count"`
	Total  decimal.Decimal `db:"total" json:"total"`
}

// CategoryTotal aggregates sold line items by product category.
type CategoryTotal struct {
	Category string          `db:"category" json:"category"`
	Quantity int64           `db:"quantity" json:"quantity"`
	Total    decimal.Decimal `db:"total" json:"total"`
}

// SalesSummary is the period report over sales, payments and expenses.
type SalesSummary struct {
	From             string          `json:"from"`
	To               string          `json:"to"`
	Revenue          decimal.Decimal `json:"revenue"`
	CreditSales      decimal.Decimal `json:"credit_sales"`
	InvoiceCount     int64           `json:"invoice_count"`
	NetRevenue       decimal.Decimal `json:"net_revenue"`
	PaymentBreakdown []MethodTotal   `json:"payment_breakdown"`
	CategorySales    []CategoryTotal `json:"category_sales"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	NetProfit        decimal.Decimal `json:"net_profit"`
}

// ProductSales ranks a product by what it sold in a range.
type ProductSales struct {
	ProductID int64           `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Category  string          `db:"category" json:"category"`
	Quantity  int64           `db:"quantity" json:"quantity"`
	Total     decimal.Decimal `db:"total" json:"total"`
}

// ExpenseCategory totals expenses under one category.
type ExpenseCategory struct {
	Category string          `db:"category" json:"category"`
	Count    int64           `db:"count" json:"count"`
	Total    decimal.Decimal `db:"total" json:"total"`
}

// ExpenseSummary groups a range's expenses by category.
type ExpenseSummary struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	Total      decimal.Decimal   `json:"total"`
	Categories []ExpenseCategory `json:"categories"`
}

// CreditSummary lists every customer with an outstanding balance.
type CreditSummary struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	Customers        []ar.Balance    `json:"customers"`
}

// SaleTotals carries the per-range sale aggregates.
type SaleTotals struct {
	Revenue      decimal.Decimal `db:"revenue"`
	CreditSales  decimal.Decimal `db:"credit_sales"`
	InvoiceCount int64           `db:"invoice_count"`
}
