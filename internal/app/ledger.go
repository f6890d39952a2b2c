package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/shopledger/internal/analytics"
	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/backup"
	"github.com/odyssey-erp/shopledger/internal/customers"
	"github.com/odyssey-erp/shopledger/internal/expenses"
	"github.com/odyssey-erp/shopledger/internal/integration"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/observability"
	"github.com/odyssey-erp/shopledger/internal/platform/cache"
	"github.com/odyssey-erp/shopledger/internal/platform/db"
	"github.com/odyssey-erp/shopledger/internal/sales"
	"github.com/odyssey-erp/shopledger/internal/seed"
	"github.com/odyssey-erp/shopledger/internal/settings"
)

// Ledger owns the store handle and every service built on it. Binaries build
// one Ledger and hand its services to handlers, jobs or subcommands.
type Ledger struct {
	DB      *sqlx.DB
	Redis   *redis.Client
	Cache   *analytics.Cache
	Metrics *observability.Metrics
	Hooks   *integration.Hooks

	Inventory *inventory.Service
	Customers *customers.Service
	Payments  *ar.Service
	Sales     *sales.Service
	Expenses  *expenses.Service
	Reports   *analytics.Service
	Backups   *backup.Service
	Settings  *settings.Service
}

// OpenLedger opens the store, connects Redis when configured and wires the services.
func OpenLedger(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Ledger, error) {
	conn, err := db.Open(ctx, db.Options{
		Path:         cfg.DBPath,
		MaxOpenConns: cfg.DBMaxOpenConns,
		BusyTimeout:  cfg.DBBusyTimeout,
	})
	if err != nil {
		return nil, err
	}

	client, err := cache.Open(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, reports served uncached until it recovers", slog.Any("error", err))
	}
	return NewLedger(conn, client, cfg, logger, metrics), nil
}

// NewLedger wires services around an open store. client may be nil to disable report caching.
func NewLedger(conn *sqlx.DB, client *redis.Client, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) *Ledger {
	ttl := cfg.AnalyticsCacheTTL
	reportCache := analytics.NewCache(client, ttl, logger)
	hooks := integration.NewHooks(reportCache, metrics, logger)

	return &Ledger{
		DB:        conn,
		Redis:     client,
		Cache:     reportCache,
		Metrics:   metrics,
		Hooks:     hooks,
		Inventory: inventory.NewService(inventory.NewRepository(conn), hooks, logger),
		Customers: customers.NewService(customers.NewRepository(conn), hooks),
		Payments:  ar.NewService(ar.NewRepository(conn), hooks, logger),
		Sales:     sales.NewService(sales.NewRepository(conn), hooks, logger),
		Expenses:  expenses.NewService(expenses.NewRepository(conn), hooks),
		Reports:   analytics.NewService(analytics.NewRepository(conn), reportCache),
		Backups:   backup.NewService(backup.NewRepository(conn), hooks, logger),
		Settings:  settings.NewService(settings.NewRepository(conn), logger),
	}
}

// Seeder returns a demo data loader bound to the ledger services.
func (l *Ledger) Seeder(logger *slog.Logger) *seed.Loader {
	return seed.NewLoader(l.DB, l.Inventory, l.Customers, l.Expenses, l.Sales, logger)
}

// Close releases the store and Redis connections.
func (l *Ledger) Close() error {
	var errs []error
	if l.Redis != nil {
		errs = append(errs, l.Redis.Close())
	}
	if l.DB != nil {
		errs = append(errs, l.DB.Close())
	}
	return errors.Join(errs...)
}
