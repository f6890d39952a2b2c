package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/odyssey-erp/shopledger/internal/shared"
)

// Classify maps driver errors onto the shared error taxonomy. Constraint
// violations keep the driver error in the chain so callers can still inspect it.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return shared.ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %w", shared.ErrConstraint, err)
	}
	return err
}

// IsConstraint reports whether err is a uniqueness, foreign-key or check violation.
func IsConstraint(err error) bool {
	return errors.Is(err, shared.ErrConstraint)
}
