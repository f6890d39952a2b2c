package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// WithTx executes fn inside a single transaction. Any error returned by fn
// rolls back every write and is handed back to the caller unchanged.
func WithTx(ctx context.Context, conn *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", Classify(err))
	}

	return nil
}
