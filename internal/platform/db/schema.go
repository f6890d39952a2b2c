package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SchemaVersion is bumped whenever statements are appended to schema.
const SchemaVersion = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT,
		retail_price REAL NOT NULL,
		wholesale_price REAL,
		stock_quantity INTEGER NOT NULL DEFAULT 0,
		min_stock_level INTEGER NOT NULL DEFAULT 5,
		image_uri TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		phone TEXT,
		address TEXT,
		city TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_number TEXT UNIQUE NOT NULL,
		customer_id INTEGER,
		total_amount REAL NOT NULL,
		payment_method TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT 'paid',
		sale_date DATETIME DEFAULT CURRENT_TIMESTAMP,
		notes TEXT,
		FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price REAL NOT NULL,
		total_price REAL NOT NULL,
		FOREIGN KEY (sale_id) REFERENCES sales(id) ON DELETE CASCADE,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_id INTEGER,
		customer_id INTEGER,
		amount REAL NOT NULL,
		payment_date DATETIME DEFAULT CURRENT_TIMESTAMP,
		payment_method TEXT NOT NULL,
		notes TEXT,
		FOREIGN KEY (sale_id) REFERENCES sales(id) ON DELETE CASCADE,
		FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		amount REAL NOT NULL,
		description TEXT,
		expense_date DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS stock_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		quantity_change INTEGER NOT NULL,
		type TEXT NOT NULL,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_security (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		pin_hash TEXT,
		last_auth DATETIME,
		lock_enabled INTEGER NOT NULL DEFAULT 0
	)`,
	`INSERT OR IGNORE INTO user_security (id, lock_enabled) VALUES (1, 0)`,
	`CREATE TABLE IF NOT EXISTS schema_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_sale ON payments(sale_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_customer ON payments(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(expense_date)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_history_product ON stock_history(product_id)`,
}

// Migrate applies the schema idempotently and records the schema version.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	return WithTx(ctx, conn, func(tx *sqlx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("platform/db: schema statement %d: %w", i, err)
			}
		}
		const upsert = `INSERT INTO schema_meta (id, version) VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET version = excluded.version`
		if _, err := tx.ExecContext(ctx, upsert, SchemaVersion); err != nil {
			return fmt.Errorf("platform/db: record schema version: %w", err)
		}
		return nil
	})
}

// CurrentVersion returns the schema version stored in the database.
func CurrentVersion(ctx context.Context, conn sqlx.QueryerContext) (int, error) {
	var version int
	if err := sqlx.GetContext(ctx, conn, &version, `SELECT version FROM schema_meta WHERE id = 1`); err != nil {
		return 0, Classify(err)
	}
	return version, nil
}
