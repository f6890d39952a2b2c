package customers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/odyssey-erp/shopledger/internal/platform/db"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

const columns = `id, name, phone, address, city, created_at`

// Repository persists customers in SQLite.
type Repository struct {
	db *sqlx.DB
}

// NewRepository constructs Repository.
func NewRepository(conn *sqlx.DB) *Repository {
	return &Repository{db: conn}
}

// Create inserts a customer and returns the stored row.
func (r *Repository) Create(ctx context.Context, in Input, at time.Time) (Customer, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (name, phone, address, city, created_at) VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(in.Name), nullable(in.Phone), nullable(in.Address), nullable(in.City), at)
	if err != nil {
		return Customer{}, db.Classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Customer{}, err
	}
	return r.Get(ctx, id)
}

// Update overwrites a customer's fields.
func (r *Repository) Update(ctx context.Context, id int64, in Input) (Customer, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE customers SET name = ?, phone = ?, address = ?, city = ? WHERE id = ?`,
		strings.TrimSpace(in.Name), nullable(in.Phone), nullable(in.Address), nullable(in.City), id)
	if err != nil {
		return Customer{}, db.Classify(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return Customer{}, err
	} else if n == 0 {
		return Customer{}, &shared.NotFound{Entity: "customer", ID: id}
	}
	return r.Get(ctx, id)
}

// Delete removes a customer. Their sales survive with no customer and their
// payments cascade away.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return db.Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &shared.NotFound{Entity: "customer", ID: id}
	}
	return nil
}

// Get loads one customer.
func (r *Repository) Get(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := r.db.GetContext(ctx, &c, `SELECT `+columns+` FROM customers WHERE id = ?`, id)
	if err != nil {
		if errors.Is(db.Classify(err), shared.ErrNotFound) {
			return Customer{}, &shared.NotFound{Entity: "customer", ID: id}
		}
		return Customer{}, err
	}
	return c, nil
}

// List returns customers by name, optionally matching name, phone or city.
func (r *Repository) List(ctx context.Context, query string) ([]Customer, error) {
	out := []Customer{}
	q := strings.TrimSpace(query)
	if q == "" {
		err := r.db.SelectContext(ctx, &out, `SELECT `+columns+` FROM customers ORDER BY name ASC, id ASC`)
		return out, err
	}
	like := "%" + q + "%"
	err := r.db.SelectContext(ctx, &out, `SELECT `+columns+` FROM customers
		WHERE name LIKE ? OR phone LIKE ? OR city LIKE ?
		ORDER BY name ASC, id ASC`, like, like, like)
	return out, err
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
