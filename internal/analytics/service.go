package analytics

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

// RepositoryPort exposes the aggregate queries reports rely on.
type RepositoryPort interface {
	SaleTotals(ctx context.Context, rng shared.DateRange) (SaleTotals, error)
	PaymentsReceived(ctx context.Context, rng shared.DateRange) (decimal.Decimal, error)
	PaymentBreakdown(ctx context.Context, rng shared.DateRange) ([]MethodTotal, error)
	CategorySales(ctx context.Context, rng shared.DateRange) ([]CategoryTotal, error)
	ExpenseTotal(ctx context.Context, rng shared.DateRange) (decimal.Decimal, error)
	TopProducts(ctx context.Context, rng shared.DateRange, limit int) ([]ProductSales, error)
	ExpensesByCategory(ctx context.Context, rng shared.DateRange) ([]ExpenseCategory, error)
	Outstanding(ctx context.Context) ([]ar.Balance, error)
}

// Service coordinates report queries with the cache layer.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	now   func() time.Time
}

// NewService wires a repository with an optional cache.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: func() time.Time { return time.Now().UTC() }}
}

// Range resolves a named period against the service clock.
func (s *Service) Range(period shared.Period, from, to time.Time) (shared.DateRange, error) {
	return shared.ResolveRange(period, from, to, s.now())
}

// SalesSummary reports revenue, collections, expenses and profit for rng.
func (s *Service) SalesSummary(ctx context.Context, rng shared.DateRange) (SalesSummary, error) {
	var out SalesSummary
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		return s.buildSummary(ctx, rng)
	}, "summary", rng.Key())
	return out, err
}

func (s *Service) buildSummary(ctx context.Context, rng shared.DateRange) (SalesSummary, error) {
	var (
		totals     SaleTotals
		received   decimal.Decimal
		breakdown  []MethodTotal
		categories []CategoryTotal
		expenses   decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { totals, err = s.repo.SaleTotals(gctx, rng); return })
	g.Go(func() (err error) { received, err = s.repo.PaymentsReceived(gctx, rng); return })
	g.Go(func() (err error) { breakdown, err = s.repo.PaymentBreakdown(gctx, rng); return })
	g.Go(func() (err error) { categories, err = s.repo.CategorySales(gctx, rng); return })
	g.Go(func() (err error) { expenses, err = s.repo.ExpenseTotal(gctx, rng); return })
	if err := g.Wait(); err != nil {
		return SalesSummary{}, err
	}

	for i := range breakdown {
		breakdown[i].Total = shared.RoundMoney(breakdown[i].Total)
	}
	for i := range categories {
		categories[i].Total = shared.RoundMoney(categories[i].Total)
	}
	revenue := shared.RoundMoney(totals.Revenue)
	expenses = shared.RoundMoney(expenses)
	return SalesSummary{
		From:             rng.FromDate(),
		To:               rng.ToDate(),
		Revenue:          revenue,
		CreditSales:      shared.RoundMoney(totals.CreditSales),
		InvoiceCount:     totals.InvoiceCount,
		NetRevenue:       shared.RoundMoney(received),
		PaymentBreakdown: breakdown,
		CategorySales:    categories,
		TotalExpenses:    expenses,
		NetProfit:        revenue.Sub(expenses),
	}, nil
}

// TopSellingProducts ranks products by sold value in rng.
func (s *Service) TopSellingProducts(ctx context.Context, rng shared.DateRange, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = DefaultTopProducts
	}
	var out []ProductSales
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		rows, err := s.repo.TopProducts(ctx, rng, limit)
		for i := range rows {
			rows[i].Total = shared.RoundMoney(rows[i].Total)
		}
		return rows, err
	}, "top", rng.Key(), strconv.Itoa(limit))
	return out, err
}

// ExpenseSummary groups expenses in rng by category.
func (s *Service) ExpenseSummary(ctx context.Context, rng shared.DateRange) (ExpenseSummary, error) {
	var out ExpenseSummary
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		rows, err := s.repo.ExpensesByCategory(ctx, rng)
		if err != nil {
			return nil, err
		}
		summary := ExpenseSummary{From: rng.FromDate(), To: rng.ToDate(), Categories: rows}
		totals := make([]decimal.Decimal, 0, len(rows))
		for i := range rows {
			rows[i].Total = shared.RoundMoney(rows[i].Total)
			totals = append(totals, rows[i].Total)
		}
		summary.Total = shared.SumMoney(totals...)
		return summary, nil
	}, "expenses", rng.Key())
	return out, err
}

// CustomerCreditSummary lists all-time outstanding balances, largest first.
func (s *Service) CustomerCreditSummary(ctx context.Context) (CreditSummary, error) {
	var out CreditSummary
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		rows, err := s.repo.Outstanding(ctx)
		if err != nil {
			return nil, err
		}
		balances := make([]decimal.Decimal, 0, len(rows))
		for _, row := range rows {
			balances = append(balances, row.Balance)
		}
		return CreditSummary{TotalOutstanding: shared.SumMoney(balances...), Customers: rows}, nil
	}, "credit")
	return out, err
}

func (s *Service) cached(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		s.cache.logger.Warn("report cache version unavailable", "error", err)
		return load(ctx, dest, loader)
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}
