package ar

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/odyssey-erp/shopledger/internal/platform/db"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

const paymentColumns = `id, sale_id, customer_id, amount, payment_date, payment_method, notes`

// Repository persists payments and derives balances in SQLite.
type Repository struct {
	db *sqlx.DB
}

// NewRepository constructs Repository.
func NewRepository(conn *sqlx.DB) *Repository {
	return &Repository{db: conn}
}

// SaleRef is the part of a sale a payment needs to know about.
type SaleRef struct {
	ID         int64  `db:"id"`
	CustomerID *int64 `db:"customer_id"`
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetSaleRef(ctx context.Context, saleID int64) (SaleRef, error)
	CustomerExists(ctx context.Context, customerID int64) (bool, error)
	InsertPayment(ctx context.Context, in PaymentInput, at time.Time) (int64, error)
	RefreshSaleStatus(ctx context.Context, saleID int64) (PaymentStatus, error)
	GetPayment(ctx context.Context, id int64) (Payment, error)
}

type txRepo struct {
	tx *sqlx.Tx
}

// WithTx executes the callback inside a single SQLite transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ListSalePayments returns the payments recorded against a sale, oldest first.
func (r *Repository) ListSalePayments(ctx context.Context, saleID int64) ([]Payment, error) {
	return listPayments(ctx, r.db, `sale_id = ?`, saleID)
}

// ListCustomerPayments returns a customer's payments, newest first.
func (r *Repository) ListCustomerPayments(ctx context.Context, customerID int64) ([]Payment, error) {
	out := []Payment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+paymentColumns+` FROM payments
		WHERE customer_id = ? ORDER BY payment_date DESC, id DESC`, customerID)
	return out, err
}

// Balance computes one customer's balance.
func (r *Repository) Balance(ctx context.Context, customerID int64) (Balance, error) {
	return QueryBalance(ctx, r.db, customerID)
}

// Outstanding lists customers with a positive balance.
func (r *Repository) Outstanding(ctx context.Context) ([]Balance, error) {
	return QueryOutstanding(ctx, r.db)
}

// ListSalePayments returns a sale's payments using q, which may be a transaction.
func ListSalePayments(ctx context.Context, q sqlx.QueryerContext, saleID int64) ([]Payment, error) {
	return listPayments(ctx, q, `sale_id = ?`, saleID)
}

func listPayments(ctx context.Context, q sqlx.QueryerContext, where string, args ...any) ([]Payment, error) {
	out := []Payment{}
	err := sqlx.SelectContext(ctx, q, &out, `SELECT `+paymentColumns+` FROM payments WHERE `+where+`
		ORDER BY payment_date ASC, id ASC`, args...)
	return out, err
}

func (r *txRepo) GetSaleRef(ctx context.Context, saleID int64) (SaleRef, error) {
	var ref SaleRef
	err := r.tx.GetContext(ctx, &ref, `SELECT id, customer_id FROM sales WHERE id = ?`, saleID)
	if err != nil {
		if errors.Is(db.Classify(err), shared.ErrNotFound) {
			return SaleRef{}, &shared.NotFound{Entity: "sale", ID: saleID}
		}
		return SaleRef{}, err
	}
	return ref, nil
}

func (r *txRepo) CustomerExists(ctx context.Context, customerID int64) (bool, error) {
	var n int
	if err := r.tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM customers WHERE id = ?`, customerID); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *txRepo) InsertPayment(ctx context.Context, in PaymentInput, at time.Time) (int64, error) {
	return InsertPayment(ctx, r.tx, in, at)
}

func (r *txRepo) RefreshSaleStatus(ctx context.Context, saleID int64) (PaymentStatus, error) {
	return RefreshSaleStatus(ctx, r.tx, saleID)
}

func (r *txRepo) GetPayment(ctx context.Context, id int64) (Payment, error) {
	var p Payment
	err := r.tx.GetContext(ctx, &p, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	return p, db.Classify(err)
}
