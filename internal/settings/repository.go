package settings

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/odyssey-erp/shopledger/internal/platform/db"
)

// Repository persists preferences and the security singleton.
type Repository struct {
	db *sqlx.DB
}

// NewRepository constructs Repository.
func NewRepository(conn *sqlx.DB) *Repository {
	return &Repository{db: conn}
}

// Values returns every stored preference.
func (r *Repository) Values(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT key, value FROM settings`); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Put upserts values in one transaction.
func (r *Repository) Put(ctx context.Context, values map[string]string) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for k, v := range values {
			if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
				return db.Classify(err)
			}
		}
		return nil
	})
}

// Security loads the lock singleton.
func (r *Repository) Security(ctx context.Context) (SecurityRecord, error) {
	var row SecurityRecord
	err := r.db.GetContext(ctx, &row, `SELECT pin_hash, last_auth, lock_enabled FROM user_security WHERE id = 1`)
	return row, db.Classify(err)
}

// SetLock stores the PIN hash and lock flag together.
func (r *Repository) SetLock(ctx context.Context, pinHash *string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE user_security SET pin_hash = ?, lock_enabled = ? WHERE id = 1`, pinHash, enabled)
	return db.Classify(err)
}

// TouchAuth records a successful unlock.
func (r *Repository) TouchAuth(ctx context.Context, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE user_security SET last_auth = ? WHERE id = 1`, at.UTC())
	return db.Classify(err)
}
