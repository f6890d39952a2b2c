package sales

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/platform/db"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

const saleColumns = `s.id, s.invoice_number, s.customer_id, s.total_amount, s.payment_method,
	s.payment_status, s.sale_date, s.notes`

const itemLineSelect = `SELECT si.id, si.sale_id, si.product_id, si.quantity, si.unit_price, si.total_price,
		p.name AS product_name, p.category
	FROM sale_items si
	JOIN products p ON p.id = si.product_id`

// Repository persists sales in SQLite.
type Repository struct {
	db *sqlx.DB
}

// NewRepository constructs Repository.
func NewRepository(conn *sqlx.DB) *Repository {
	return &Repository{db: conn}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	CustomerExists(ctx context.Context, id int64) (bool, error)
	NextInvoiceNumber(ctx context.Context) (string, error)
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertItem(ctx context.Context, item SaleItem) error
	ApplyMovement(ctx context.Context, m inventory.Movement, at time.Time) error
	InsertPayment(ctx context.Context, in ar.PaymentInput, at time.Time) (int64, error)
	RefreshStatus(ctx context.Context, saleID int64) (ar.PaymentStatus, error)
	GetSale(ctx context.Context, id int64) (Sale, error)
	ListItems(ctx context.Context, saleID int64) ([]SaleItem, error)
	DeleteSale(ctx context.Context, id int64) error
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

// GetDetail loads a sale with its lines, customer and payments.
func (r *Repository) GetDetail(ctx context.Context, id int64) (SaleDetail, error) {
	var head struct {
		Sale
		CustomerName  *string `db:"customer_name"`
		CustomerPhone *string `db:"customer_phone"`
	}
	err := r.db.GetContext(ctx, &head, `SELECT `+saleColumns+`, c.name AS customer_name, c.phone AS customer_phone
		FROM sales s LEFT JOIN customers c ON c.id = s.customer_id
		WHERE s.id = ?`, id)
	if err != nil {
		if errors.Is(db.Classify(err), shared.ErrNotFound) {
			return SaleDetail{}, &shared.NotFound{Entity: "sale", ID: id}
		}
		return SaleDetail{}, err
	}
	detail := SaleDetail{Sale: head.Sale, CustomerName: head.CustomerName, CustomerPhone: head.CustomerPhone}
	detail.Items = []ItemLine{}
	if err := r.db.SelectContext(ctx, &detail.Items, itemLineSelect+` WHERE si.sale_id = ? ORDER BY si.id`, id); err != nil {
		return SaleDetail{}, err
	}
	detail.Payments, err = ar.ListSalePayments(ctx, r.db, id)
	if err != nil {
		return SaleDetail{}, err
	}
	return detail, nil
}

// List returns one page of sales, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]SaleSummary, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Range != nil {
		where = append(where, "DATE(s.sale_date) BETWEEN DATE(?) AND DATE(?)")
		args = append(args, filter.Range.FromDate(), filter.Range.ToDate())
	}
	if filter.CustomerID > 0 {
		where = append(where, "s.customer_id = ?")
		args = append(args, filter.CustomerID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sales s`+clause, args...); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	rows := []SaleSummary{}
	query := `SELECT ` + saleColumns + `, c.name AS customer_name,
			(SELECT COUNT(*) FROM sale_items si WHERE si.sale_id = s.id) AS item_count
		FROM sales s LEFT JOIN customers c ON c.id = s.customer_id` + clause + `
		ORDER BY s.sale_date DESC, s.id DESC
		LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &rows, query, append(args, page.PerPage, page.Offset())...); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *txRepo) CustomerExists(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := r.tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM customers WHERE id = ?`, id); err != nil {
		return false, err
	}
	return n > 0, nil
}

// NextInvoiceNumber follows the sales id sequence and skips numbers already
// taken by hand-entered invoices.
func (r *txRepo) NextInvoiceNumber(ctx context.Context) (string, error) {
	var seq int64
	err := r.tx.GetContext(ctx, &seq, `SELECT COALESCE((SELECT seq FROM sqlite_sequence WHERE name = 'sales'), 0) + 1`)
	if err != nil {
		return "", err
	}
	for {
		candidate := FormatInvoiceNumber(seq)
		var taken int
		if err := r.tx.GetContext(ctx, &taken, `SELECT COUNT(*) FROM sales WHERE invoice_number = ?`, candidate); err != nil {
			return "", err
		}
		if taken == 0 {
			return candidate, nil
		}
		seq++
	}
}

func (r *txRepo) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	res, err := r.tx.ExecContext(ctx, `INSERT INTO sales
		(invoice_number, customer_id, total_amount, payment_method, payment_status, sale_date, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sale.InvoiceNumber, sale.CustomerID, sale.TotalAmount, sale.PaymentMethod,
		string(sale.PaymentStatus), sale.SaleDate, sale.Notes)
	if err != nil {
		return 0, db.Classify(err)
	}
	return res.LastInsertId()
}

func (r *txRepo) InsertItem(ctx context.Context, item SaleItem) error {
	_, err := r.tx.ExecContext(ctx, `INSERT INTO sale_items
		(sale_id, product_id, quantity, unit_price, total_price) VALUES (?, ?, ?, ?, ?)`,
		item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice)
	return db.Classify(err)
}

func (r *txRepo) ApplyMovement(ctx context.Context, m inventory.Movement, at time.Time) error {
	return inventory.ApplyMovement(ctx, r.tx, m, at)
}

func (r *txRepo) InsertPayment(ctx context.Context, in ar.PaymentInput, at time.Time) (int64, error) {
	return ar.InsertPayment(ctx, r.tx, in, at)
}

func (r *txRepo) RefreshStatus(ctx context.Context, saleID int64) (ar.PaymentStatus, error) {
	return ar.RefreshSaleStatus(ctx, r.tx, saleID)
}

func (r *txRepo) GetSale(ctx context.Context, id int64) (Sale, error) {
	var sale Sale
	err := r.tx.GetContext(ctx, &sale, `SELECT `+saleColumns+` FROM sales s WHERE s.id = ?`, id)
	if err != nil {
		if errors.Is(db.Classify(err), shared.ErrNotFound) {
			return Sale{}, &shared.NotFound{Entity: "sale", ID: id}
		}
		return Sale{}, err
	}
	return sale, nil
}

func (r *txRepo) ListItems(ctx context.Context, saleID int64) ([]SaleItem, error) {
	items := []SaleItem{}
	err := r.tx.SelectContext(ctx, &items, `SELECT id, sale_id, product_id, quantity, unit_price, total_price
		FROM sale_items WHERE sale_id = ? ORDER BY id`, saleID)
	return items, err
}

// DeleteSale removes lines, payments and the header in dependency order.
func (r *txRepo) DeleteSale(ctx context.Context, id int64) error {
	for _, stmt := range []string{
		`DELETE FROM sale_items WHERE sale_id = ?`,
		`DELETE FROM payments WHERE sale_id = ?`,
		`DELETE FROM sales WHERE id = ?`,
	} {
		if _, err := r.tx.ExecContext(ctx, stmt, id); err != nil {
			return db.Classify(err)
		}
	}
	return nil
}
