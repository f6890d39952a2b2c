package expenses

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/odyssey-erp/shopledger/internal/platform/db"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

const columns = `id, category, amount, description, expense_date`

// Repository persists expenses in SQLite.
type Repository struct {
	db *sqlx.DB
}

// NewRepository constructs Repository.
func NewRepository(conn *sqlx.DB) *Repository {
	return &Repository{db: conn}
}

// Create inserts an expense.
func (r *Repository) Create(ctx context.Context, in Input) (Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (category, amount, description, expense_date) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(in.Category), in.Amount, nullable(in.Description), in.ExpenseDate.UTC())
	if err != nil {
		return Expense{}, db.Classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Expense{}, err
	}
	return r.Get(ctx, id)
}

// Update overwrites an expense.
func (r *Repository) Update(ctx context.Context, id int64, in Input) (Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET category = ?, amount = ?, description = ?, expense_date = ? WHERE id = ?`,
		strings.TrimSpace(in.Category), in.Amount, nullable(in.Description), in.ExpenseDate.UTC(), id)
	if err != nil {
		return Expense{}, db.Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Expense{}, err
	}
	if n == 0 {
		return Expense{}, &shared.NotFound{Entity: "expense", ID: id}
	}
	return r.Get(ctx, id)
}

// Delete removes an expense.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return db.Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &shared.NotFound{Entity: "expense", ID: id}
	}
	return nil
}

// Get loads one expense.
func (r *Repository) Get(ctx context.Context, id int64) (Expense, error) {
	var e Expense
	err := r.db.GetContext(ctx, &e, `SELECT `+columns+` FROM expenses WHERE id = ?`, id)
	if err != nil {
		if errors.Is(db.Classify(err), shared.ErrNotFound) {
			return Expense{}, &shared.NotFound{Entity: "expense", ID: id}
		}
		return Expense{}, err
	}
	return e, nil
}

// ListRange returns expenses dated inside rng, newest first.
func (r *Repository) ListRange(ctx context.Context, rng shared.DateRange) ([]Expense, error) {
	out := []Expense{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+columns+` FROM expenses
		WHERE DATE(expense_date) BETWEEN DATE(?) AND DATE(?)
		ORDER BY expense_date DESC, id DESC`, rng.FromDate(), rng.ToDate())
	return out, err
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
