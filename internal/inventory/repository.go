package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/odyssey-erp/shopledger/internal/platform/db"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

const productColumns = `id, name, category, description, retail_price, wholesale_price,
	stock_quantity, min_stock_level, image_uri, created_at, updated_at`

// Repository persists products and the stock ledger in SQLite.
type Repository struct {
	db *sqlx.DB
}

// NewRepository constructs Repository.
func NewRepository(conn *sqlx.DB) *Repository {
	return &Repository{db: conn}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertProduct(ctx context.Context, in CreateProductInput, at time.Time) (int64, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput, at time.Time) error
	DeleteProduct(ctx context.Context, id int64) error
	ApplyMovement(ctx context.Context, m Movement, at time.Time) error
	ProductIDs(ctx context.Context) ([]int64, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
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

// GetProduct loads one product.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	return getProduct(ctx, r.db, id)
}

// ListProducts returns products ordered by name.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, "(name LIKE ? OR description LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name ASC, id ASC"
	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}
	return products, nil
}

// ListLowStock returns products at or below their minimum level, most urgent first.
func (r *Repository) ListLowStock(ctx context.Context) ([]Product, error) {
	products := []Product{}
	err := r.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products
		WHERE stock_quantity <= min_stock_level
		ORDER BY stock_quantity ASC, id ASC`)
	return products, err
}

// ListHistory returns the movement log of one product, newest first.
func (r *Repository) ListHistory(ctx context.Context, productID int64) ([]StockHistory, error) {
	rows := []StockHistory{}
	err := r.db.SelectContext(ctx, &rows, `SELECT id, product_id, quantity_change, type, notes, created_at
		FROM stock_history WHERE product_id = ? ORDER BY created_at DESC, id DESC`, productID)
	return rows, err
}

// RecentMovements returns the latest movements across all products.
func (r *Repository) RecentMovements(ctx context.Context, limit int) ([]MovementEntry, error) {
	rows := []MovementEntry{}
	err := r.db.SelectContext(ctx, &rows, `SELECT sh.id, sh.product_id, sh.quantity_change, sh.type, sh.notes, sh.created_at,
			p.name AS product_name
		FROM stock_history sh
		JOIN products p ON p.id = sh.product_id
		ORDER BY sh.created_at DESC, sh.id DESC
		LIMIT ?`, limit)
	return rows, err
}

// Reconcile lists products whose quantity differs from the sum of their history.
func (r *Repository) Reconcile(ctx context.Context) ([]Drift, error) {
	rows := []Drift{}
	err := r.db.SelectContext(ctx, &rows, `SELECT p.id AS product_id, p.stock_quantity,
			COALESCE((SELECT SUM(sh.quantity_change) FROM stock_history sh WHERE sh.product_id = p.id), 0) AS history_total
		FROM products p
		WHERE p.stock_quantity <> COALESCE((SELECT SUM(sh.quantity_change) FROM stock_history sh WHERE sh.product_id = p.id), 0)
		ORDER BY p.id`)
	return rows, err
}

func (r *txRepo) InsertProduct(ctx context.Context, in CreateProductInput, at time.Time) (int64, error) {
	minLevel := int64(DefaultMinStockLevel)
	if in.MinStockLevel != nil {
		minLevel = *in.MinStockLevel
	}
	res, err := r.tx.ExecContext(ctx, `INSERT INTO products
		(name, category, description, retail_price, wholesale_price, stock_quantity, min_stock_level, image_uri, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		in.Name, in.Category, nullable(in.Description), in.RetailPrice, in.WholesalePrice,
		minLevel, nullable(in.ImageURI), at, at)
	if err != nil {
		return 0, db.Classify(err)
	}
	return res.LastInsertId()
}

func (r *txRepo) UpdateProduct(ctx context.Context, id int64, in ProductInput, at time.Time) error {
	minLevel := int64(DefaultMinStockLevel)
	if in.MinStockLevel != nil {
		minLevel = *in.MinStockLevel
	}
	res, err := r.tx.ExecContext(ctx, `UPDATE products SET
		name = ?, category = ?, description = ?, retail_price = ?, wholesale_price = ?,
		min_stock_level = ?, image_uri = ?, updated_at = ?
		WHERE id = ?`,
		in.Name, in.Category, nullable(in.Description), in.RetailPrice, in.WholesalePrice,
		minLevel, nullable(in.ImageURI), at, id)
	if err != nil {
		return db.Classify(err)
	}
	return requireAffected(res, id)
}

func (r *txRepo) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return db.Classify(err)
	}
	return requireAffected(res, id)
}

func (r *txRepo) ApplyMovement(ctx context.Context, m Movement, at time.Time) error {
	return ApplyMovement(ctx, r.tx, m, at)
}

func (r *txRepo) ProductIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	err := r.tx.SelectContext(ctx, &ids, `SELECT id FROM products ORDER BY id`)
	return ids, err
}

func (r *txRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	return getProduct(ctx, r.tx, id)
}

func getProduct(ctx context.Context, q sqlx.QueryerContext, id int64) (Product, error) {
	var p Product
	err := sqlx.GetContext(ctx, q, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if err != nil {
		if errors.Is(db.Classify(err), shared.ErrNotFound) {
			return Product{}, &shared.NotFound{Entity: "product", ID: id}
		}
		return Product{}, err
	}
	return p, nil
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func requireAffected(res rowsAffected, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &shared.NotFound{Entity: "product", ID: id}
	}
	return nil
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
