package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

// Options controls how the embedded store is opened.
type Options struct {
	Path         string
	MaxOpenConns int
	BusyTimeout  time.Duration
}

// DSN builds the go-sqlite3 connection string. Foreign keys are enforced on
// every connection and write transactions take the reserved lock up front.
func (o Options) DSN() string {
	busy := o.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	q := url.Values{}
	q.Set("_foreign_keys", "1")
	q.Set("_busy_timeout", fmt.Sprintf("%d", busy.Milliseconds()))
	q.Set("_journal_mode", "WAL")
	q.Set("_txlock", "immediate")
	return "file:" + o.Path + "?" + q.Encode()
}

// Open connects to the SQLite file, verifies it and applies the schema.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("platform/db: path required")
	}
	conn, err := sqlx.Open(DriverName, opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("platform/db: open: %w", err)
	}
	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxOpen)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}
	if err := Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
