package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/odyssey-erp/shopledger/internal/platform/db"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

// ApplyMovement writes one stock delta and its history row using exec, which
// must be the caller's open transaction. The quantity update is relative so
// concurrent movements on the same product never lose a delta.
func ApplyMovement(ctx context.Context, exec sqlx.ExtContext, m Movement, at time.Time) error {
	if m.Delta != 0 {
		res, err := exec.ExecContext(ctx,
			`UPDATE products SET stock_quantity = stock_quantity + ?, updated_at = ? WHERE id = ?`,
			m.Delta, at, m.ProductID)
		if err != nil {
			return fmt.Errorf("inventory: apply delta: %w", db.Classify(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &shared.NotFound{Entity: "product", ID: m.ProductID}
		}
	} else if err := ensureProduct(ctx, exec, m.ProductID); err != nil {
		return err
	}

	var notes *string
	if m.Notes != "" {
		notes = &m.Notes
	}
	_, err := exec.ExecContext(ctx,
		`INSERT INTO stock_history (product_id, quantity_change, type, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ProductID, m.Delta, string(m.Type), notes, at)
	if err != nil {
		return fmt.Errorf("inventory: insert history: %w", db.Classify(err))
	}
	return nil
}

func ensureProduct(ctx context.Context, q sqlx.QueryerContext, id int64) error {
	var exists int
	err := sqlx.GetContext(ctx, q, &exists, `SELECT 1 FROM products WHERE id = ?`, id)
	if err != nil {
		if errors.Is(db.Classify(err), shared.ErrNotFound) {
			return &shared.NotFound{Entity: "product", ID: id}
		}
		return err
	}
	return nil
}
