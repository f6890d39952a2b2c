package ar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/shopledger/internal/platform/db"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

// InsertPayment writes a payment row through exec, normally an open transaction.
func InsertPayment(ctx context.Context, exec sqlx.ExecerContext, in PaymentInput, at time.Time) (int64, error) {
	paidAt := in.PaymentDate
	if paidAt.IsZero() {
		paidAt = at
	}
	var notes *string
	if in.Notes != "" {
		notes = &in.Notes
	}
	res, err := exec.ExecContext(ctx, `INSERT INTO payments
		(sale_id, customer_id, amount, payment_date, payment_method, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.SaleID, in.CustomerID, in.Amount, paidAt.UTC(), in.PaymentMethod, notes)
	if err != nil {
		return 0, fmt.Errorf("ar: insert payment: %w", db.Classify(err))
	}
	return res.LastInsertId()
}

// RefreshSaleStatus recomputes a sale's payment status from its payments.
// Called inside the transaction that changed those payments so the status
// never reflects a half-applied write.
func RefreshSaleStatus(ctx context.Context, exec sqlx.ExtContext, saleID int64) (PaymentStatus, error) {
	var row struct {
		Total decimal.Decimal `db:"total_amount"`
		Paid  decimal.Decimal `db:"paid"`
	}
	err := sqlx.GetContext(ctx, exec, &row, `SELECT s.total_amount,
			COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.sale_id = s.id), 0) AS paid
		FROM sales s WHERE s.id = ?`, saleID)
	if err != nil {
		if errors.Is(db.Classify(err), shared.ErrNotFound) {
			return "", &shared.NotFound{Entity: "sale", ID: saleID}
		}
		return "", err
	}
	status := DeriveStatus(row.Paid.Round(2), row.Total.Round(2))
	if _, err := exec.ExecContext(ctx, `UPDATE sales SET payment_status = ? WHERE id = ?`, string(status), saleID); err != nil {
		return "", fmt.Errorf("ar: update sale status: %w", db.Classify(err))
	}
	return status, nil
}

const balanceSelect = `SELECT customer_id, name, phone, city, total_sales, total_paid, total_sales - total_paid AS balance
	FROM (
		SELECT c.id AS customer_id, c.name, c.phone, c.city,
			COALESCE((SELECT SUM(s.total_amount) FROM sales s WHERE s.customer_id = c.id), 0) AS total_sales,
			COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.customer_id = c.id), 0) AS total_paid
		FROM customers c
	)`

// QueryOutstanding lists customers owing money, largest balance first.
func QueryOutstanding(ctx context.Context, q sqlx.QueryerContext) ([]Balance, error) {
	rows := []Balance{}
	err := sqlx.SelectContext(ctx, q, &rows, balanceSelect+`
		WHERE total_sales - total_paid > 0.004
		ORDER BY balance DESC, customer_id ASC`)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].round()
	}
	return rows, nil
}

// QueryBalance computes one customer's balance.
func QueryBalance(ctx context.Context, q sqlx.QueryerContext, customerID int64) (Balance, error) {
	var b Balance
	err := sqlx.GetContext(ctx, q, &b, balanceSelect+` WHERE customer_id = ?`, customerID)
	if err != nil {
		if errors.Is(db.Classify(err), shared.ErrNotFound) {
			return Balance{}, &shared.NotFound{Entity: "customer", ID: customerID}
		}
		return Balance{}, err
	}
	b.round()
	return b, nil
}
