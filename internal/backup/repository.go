package backup

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/odyssey-erp/shopledger/internal/platform/db"
)

// Repository reads and replaces every ledger table.
type Repository struct {
	db *sqlx.DB
}

// NewRepository constructs Repository.
func NewRepository(conn *sqlx.DB) *Repository {
	return &Repository{db: conn}
}

var (
	selects = map[string]string{
		"products":      `SELECT id, name, category, description, retail_price, wholesale_price, stock_quantity, min_stock_level, image_uri, created_at, updated_at FROM products ORDER BY id`,
		"customers":     `SELECT id, name, phone, address, city, created_at FROM customers ORDER BY id`,
		"sales":         `SELECT id, invoice_number, customer_id, total_amount, payment_method, payment_status, sale_date, notes FROM sales ORDER BY id`,
		"sale_items":    `SELECT id, sale_id, product_id, quantity, unit_price, total_price FROM sale_items ORDER BY id`,
		"payments":      `SELECT id, sale_id, customer_id, amount, payment_date, payment_method, notes FROM payments ORDER BY id`,
		"expenses":      `SELECT id, category, amount, description, expense_date FROM expenses ORDER BY id`,
		"stock_history": `SELECT id, product_id, quantity_change, type, notes, created_at FROM stock_history ORDER BY id`,
	}

	// Children before parents.
	clearOrder = []string{"payments", "sale_items", "sales", "stock_history", "products", "customers", "expenses"}

	inserts = map[string]string{
		"products": `INSERT INTO products (id, name, category, description, retail_price, wholesale_price, stock_quantity, min_stock_level, image_uri, created_at, updated_at)
			VALUES (:id, :name, :category, :description, :retail_price, :wholesale_price, :stock_quantity, :min_stock_level, :image_uri, :created_at, :updated_at)`,
		"customers": `INSERT INTO customers (id, name, phone, address, city, created_at)
			VALUES (:id, :name, :phone, :address, :city, :created_at)`,
		"sales": `INSERT INTO sales (id, invoice_number, customer_id, total_amount, payment_method, payment_status, sale_date, notes)
			VALUES (:id, :invoice_number, :customer_id, :total_amount, :payment_method, :payment_status, :sale_date, :notes)`,
		"sale_items": `INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, total_price)
			VALUES (:id, :sale_id, :product_id, :quantity, :unit_price, :total_price)`,
		"payments": `INSERT INTO payments (id, sale_id, customer_id, amount, payment_date, payment_method, notes)
			VALUES (:id, :sale_id, :customer_id, :amount, :payment_date, :payment_method, :notes)`,
		"expenses": `INSERT INTO expenses (id, category, amount, description, expense_date)
			VALUES (:id, :category, :amount, :description, :expense_date)`,
		"stock_history": `INSERT INTO stock_history (id, product_id, quantity_change, type, notes, created_at)
			VALUES (:id, :product_id, :quantity_change, :type, :notes, :created_at)`,
	}
)

// Snapshot reads every table inside one transaction so the export is consistent.
func (r *Repository) Snapshot(ctx context.Context) (Document, error) {
	var doc Document
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		targets := []struct {
			table string
			dest  any
		}{
			{"products", &doc.Products},
			{"customers", &doc.Customers},
			{"sales", &doc.Sales},
			{"sale_items", &doc.SaleItems},
			{"payments", &doc.Payments},
			{"expenses", &doc.Expenses},
			{"stock_history", &doc.StockHistory},
		}
		for _, t := range targets {
			if err := tx.SelectContext(ctx, t.dest, selects[t.table]); err != nil {
				return fmt.Errorf("backup: read %s: %w", t.table, err)
			}
		}
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	doc.normalize()
	return doc, nil
}

// Replace clears every ledger table and inserts doc's rows with their original ids.
func (r *Repository) Replace(ctx context.Context, doc Document) (Counts, error) {
	var counts Counts
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, table := range clearOrder {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("backup: clear %s: %w", table, db.Classify(err))
			}
		}
		var err error
		if counts.Customers, err = insertAll(ctx, tx, "customers", doc.Customers); err != nil {
			return err
		}
		if counts.Products, err = insertAll(ctx, tx, "products", doc.Products); err != nil {
			return err
		}
		if counts.Expenses, err = insertAll(ctx, tx, "expenses", doc.Expenses); err != nil {
			return err
		}
		if counts.Sales, err = insertAll(ctx, tx, "sales", doc.Sales); err != nil {
			return err
		}
		if counts.SaleItems, err = insertAll(ctx, tx, "sale_items", doc.SaleItems); err != nil {
			return err
		}
		if counts.Payments, err = insertAll(ctx, tx, "payments", doc.Payments); err != nil {
			return err
		}
		counts.StockHistory, err = insertAll(ctx, tx, "stock_history", doc.StockHistory)
		return err
	})
	if err != nil {
		return Counts{}, err
	}
	return counts, nil
}

func insertAll[T any](ctx context.Context, tx *sqlx.Tx, table string, rows []T) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareNamedContext(ctx, inserts[table])
	if err != nil {
		return 0, fmt.Errorf("backup: prepare %s: %w", table, err)
	}
	defer stmt.Close()
	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return 0, fmt.Errorf("backup: restore %s row %d: %w", table, i, db.Classify(err))
		}
	}
	return len(rows), nil
}
