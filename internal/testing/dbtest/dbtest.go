// Package dbtest opens throwaway SQLite stores for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/shopledger/internal/platform/db"
	_ "github.com/odyssey-erp/shopledger/internal/testing/guard"
)

// Open returns a migrated store backed by a file in t.TempDir.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	return OpenAt(t, filepath.Join(t.TempDir(), "ledger.db"))
}

// OpenAt opens (or reopens) the store at path and closes it on cleanup.
func OpenAt(t testing.TB, path string) *sqlx.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), db.Options{Path: path, MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// Count returns the number of rows in table matching the optional where clause.
func Count(t testing.TB, conn *sqlx.DB, table, where string, args ...any) int {
	t.Helper()
	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	require.NoError(t, conn.Get(&n, query, args...))
	return n
}
