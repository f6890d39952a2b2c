package analytics

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

// Repository runs the aggregate queries behind reports.
type Repository struct {
	db *sqlx.DB
}

// NewRepository constructs Repository.
func NewRepository(conn *sqlx.DB) *Repository {
	return &Repository{db: conn}
}

const inSaleRange = `DATE(s.sale_date) BETWEEN DATE(?) AND DATE(?)`

// SaleTotals sums revenue, credit sales and invoice count for sales in rng.
func (r *Repository) SaleTotals(ctx context.Context, rng shared.DateRange) (SaleTotals, error) {
	var out SaleTotals
	err := r.db.GetContext(ctx, &out, `SELECT
			COALESCE(SUM(s.total_amount), 0.0) AS revenue,
			COALESCE(SUM(CASE WHEN s.payment_method = 'credit' THEN s.total_amount ELSE 0 END), 0.0) AS credit_sales,
			COUNT(*) AS invoice_count
		FROM sales s WHERE `+inSaleRange, rng.FromDate(), rng.ToDate())
	return out, err
}

// PaymentsReceived sums payments dated in rng, whatever the sale date.
func (r *Repository) PaymentsReceived(ctx context.Context, rng shared.DateRange) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0.0) FROM payments
		WHERE DATE(payment_date) BETWEEN DATE(?) AND DATE(?)`, rng.FromDate(), rng.ToDate())
	return total, err
}

// PaymentBreakdown groups sales in rng by payment method.
func (r *Repository) PaymentBreakdown(ctx context.Context, rng shared.DateRange) ([]MethodTotal, error) {
	out := []MethodTotal{}
	err := r.db.SelectContext(ctx, &out, `SELECT s.payment_method, COUNT(*) AS count,
			COALESCE(SUM(s.total_amount), 0.0) AS total
		FROM sales s WHERE `+inSaleRange+`
		GROUP BY s.payment_method ORDER BY total DESC, s.payment_method`, rng.FromDate(), rng.ToDate())
	return out, err
}

// CategorySales groups sold items in rng by their product's category.
func (r *Repository) CategorySales(ctx context.Context, rng shared.DateRange) ([]CategoryTotal, error) {
	out := []CategoryTotal{}
	err := r.db.SelectContext(ctx, &out, `SELECT p.category, COALESCE(SUM(si.quantity), 0) AS quantity,
			COALESCE(SUM(si.total_price), 0.0) AS total
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE `+inSaleRange+`
		GROUP BY p.category ORDER BY total DESC, p.category`, rng.FromDate(), rng.ToDate())
	return out, err
}

// ExpenseTotal sums expenses dated in rng.
func (r *Repository) ExpenseTotal(ctx context.Context, rng shared.DateRange) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0.0) FROM expenses
		WHERE DATE(expense_date) BETWEEN DATE(?) AND DATE(?)`, rng.FromDate(), rng.ToDate())
	return total, err
}

// TopProducts ranks products by sold value in rng. Ties keep product insertion order.
func (r *Repository) TopProducts(ctx context.Context, rng shared.DateRange, limit int) ([]ProductSales, error) {
	out := []ProductSales{}
	err := r.db.SelectContext(ctx, &out, `SELECT p.id AS product_id, p.name, p.category,
			SUM(si.quantity) AS quantity, SUM(si.total_price) AS total
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE `+inSaleRange+`
		GROUP BY p.id, p.name, p.category
		ORDER BY total DESC, p.id ASC
		LIMIT ?`, rng.FromDate(), rng.ToDate(), limit)
	return out, err
}

// ExpensesByCategory groups expenses in rng, largest total first.
func (r *Repository) ExpensesByCategory(ctx context.Context, rng shared.DateRange) ([]ExpenseCategory, error) {
	out := []ExpenseCategory{}
	err := r.db.SelectContext(ctx, &out, `SELECT category, COUNT(*) AS count, SUM(amount) AS total
		FROM expenses WHERE DATE(expense_date) BETWEEN DATE(?) AND DATE(?)
		GROUP BY category ORDER BY total DESC, category`, rng.FromDate(), rng.ToDate())
	return out, err
}

// Outstanding lists customer balances above zero.
func (r *Repository) Outstanding(ctx context.Context) ([]ar.Balance, error) {
	return ar.QueryOutstanding(ctx, r.db)
}
