package analytics_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/shopledger/internal/analytics"
	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/customers"
	"github.com/odyssey-erp/shopledger/internal/expenses"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/sales"
	"github.com/odyssey-erp/shopledger/internal/shared"
	"github.com/odyssey-erp/shopledger/internal/testing/dbtest"
)

type ledger struct {
	inventory *inventory.Service
	customers *customers.Service
	sales     *sales.Service
	payments  *ar.Service
	expenses  *expenses.Service
	reports   *analytics.Service
}

func newLedger(t *testing.T, cache *analytics.Cache) ledger {
	t.Helper()
	conn := dbtest.Open(t)
	return ledger{
		inventory: inventory.NewService(inventory.NewRepository(conn), nil, nil),
		customers: customers.NewService(customers.NewRepository(conn), nil),
		sales:     sales.NewService(sales.NewRepository(conn), nil, nil),
		payments:  ar.NewService(ar.NewRepository(conn), nil, nil),
		expenses:  expenses.NewService(expenses.NewRepository(conn), nil),
		reports:   analytics.NewService(analytics.NewRepository(conn), cache),
	}
}

func (l ledger) product(t *testing.T, name, category string) inventory.Product {
	t.Helper()
	p, err := l.inventory.CreateProduct(context.Background(), inventory.CreateProductInput{
		ProductInput: inventory.ProductInput{Name: name, Category: category, RetailPrice: decimal.NewFromInt(100)},
		InitialStock: 50,
	})
	require.NoError(t, err)
	return p
}

func (l ledger) sell(t *testing.T, in sales.CreateSaleInput) sales.Sale {
	t.Helper()
	s, err := l.sales.CreateSale(context.Background(), in)
	require.NoError(t, err)
	return s
}

func item(productID, qty, price int64) sales.ItemInput {
	return sales.ItemInput{ProductID: productID, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}
}

func today(t *testing.T, svc *analytics.Service) shared.DateRange {
	t.Helper()
	rng, err := svc.Range(shared.PeriodDaily, time.Time{}, time.Time{})
	require.NoError(t, err)
	return rng
}

func requireMoney(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.NewFromInt(want).Equal(got), "want %d got %s", want, got)
}

func TestSalesSummaryDailyScenario(t *testing.T) {
	l := newLedger(t, nil)
	ctx := context.Background()
	lock := l.product(t, "Mortise Lock", "hardware")
	hinge := l.product(t, "Brass Hinge", "accessories")
	buyer, err := l.customers.Create(ctx, customers.Input{Name: "Ahmed Builders"})
	require.NoError(t, err)

	l.sell(t, sales.CreateSaleInput{PaymentMethod: "cash", Items: []sales.ItemInput{item(lock.ID, 2, 500)}})
	l.sell(t, sales.CreateSaleInput{PaymentMethod: "credit", CustomerID: &buyer.ID, Items: []sales.ItemInput{item(hinge.ID, 10, 200)}})
	_, err = l.expenses.Create(ctx, expenses.Input{Category: "Rent", Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)

	summary, err := l.reports.SalesSummary(ctx, today(t, l.reports))
	require.NoError(t, err)
	requireMoney(t, 3000, summary.Revenue)
	requireMoney(t, 2000, summary.CreditSales)
	require.Equal(t, int64(2), summary.InvoiceCount)
	requireMoney(t, 500, summary.TotalExpenses)
	requireMoney(t, 2500, summary.NetProfit)
	requireMoney(t, 1000, summary.NetRevenue)

	require.Len(t, summary.PaymentBreakdown, 2)
	require.Equal(t, "credit", summary.PaymentBreakdown[0].Method)
	require.Equal(t, int64(1), summary.PaymentBreakdown[0].Count)
	requireMoney(t, 1000, summary.PaymentBreakdown[1].Total)

	require.Len(t, summary.CategorySales, 2)
	require.Equal(t, "accessories", summary.CategorySales[0].Category)
	require.Equal(t, int64(10), summary.CategorySales[0].Quantity)
	requireMoney(t, 2000, summary.CategorySales[0].Total)
}

func TestNetRevenueCountsPaymentsByPaymentDate(t *testing.T) {
	l := newLedger(t, nil)
	ctx := context.Background()
	lock := l.product(t, "Mortise Lock", "hardware")
	buyer, err := l.customers.Create(ctx, customers.Input{Name: "Khan Interiors"})
	require.NoError(t, err)

	old := l.sell(t, sales.CreateSaleInput{
		PaymentMethod: "credit",
		CustomerID:    &buyer.ID,
		SaleDate:      time.Now().UTC().AddDate(0, 0, -10),
		Items:         []sales.ItemInput{item(lock.ID, 4, 1000)},
	})
	_, err = l.payments.RecordPayment(ctx, ar.PaymentInput{SaleID: &old.ID, Amount: decimal.NewFromInt(1500)})
	require.NoError(t, err)

	summary, err := l.reports.SalesSummary(ctx, today(t, l.reports))
	require.NoError(t, err)
	require.Zero(t, summary.InvoiceCount)
	require.True(t, summary.Revenue.IsZero())
	requireMoney(t, 1500, summary.NetRevenue)
}

func TestTopSellingProductsRanksByValue(t *testing.T) {
	l := newLedger(t, nil)
	ctx := context.Background()
	lock := l.product(t, "Mortise Lock", "hardware")
	hinge := l.product(t, "Brass Hinge", "accessories")
	door := l.product(t, "Flush Door", "doors")

	l.sell(t, sales.CreateSaleInput{PaymentMethod: "cash", Items: []sales.ItemInput{item(lock.ID, 3, 500), item(hinge.ID, 1, 2000)}})
	l.sell(t, sales.CreateSaleInput{PaymentMethod: "card", Items: []sales.ItemInput{item(door.ID, 1, 900), item(lock.ID, 1, 500)}})

	rng := today(t, l.reports)
	rows, err := l.reports.TopSellingProducts(ctx, rng, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, lock.ID, rows[0].ProductID)
	require.Equal(t, int64(4), rows[0].Quantity)
	requireMoney(t, 2000, rows[0].Total)
	require.Equal(t, hinge.ID, rows[1].ProductID)

	top, err := l.reports.TopSellingProducts(ctx, rng, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
}

func TestExpenseSummaryGroupsByCategory(t *testing.T) {
	l := newLedger(t, nil)
	ctx := context.Background()
	for _, in := range []expenses.Input{
		{Category: "Transport", Amount: decimal.NewFromInt(300)},
		{Category: "Utilities", Amount: decimal.NewFromInt(1200)},
		{Category: "Transport", Amount: decimal.NewFromInt(450)},
	} {
		_, err := l.expenses.Create(ctx, in)
		require.NoError(t, err)
	}

	summary, err := l.reports.ExpenseSummary(ctx, today(t, l.reports))
	require.NoError(t, err)
	requireMoney(t, 1950, summary.Total)
	require.Len(t, summary.Categories, 2)
	require.Equal(t, "Utilities", summary.Categories[0].Category)
	require.Equal(t, "Transport", summary.Categories[1].Category)
	require.Equal(t, int64(2), summary.Categories[1].Count)
}

func TestCustomerCreditSummary(t *testing.T) {
	l := newLedger(t, nil)
	ctx := context.Background()
	door := l.product(t, "Flush Door", "doors")
	small, err := l.customers.Create(ctx, customers.Input{Name: "Small Shop"})
	require.NoError(t, err)
	big, err := l.customers.Create(ctx, customers.Input{Name: "Big Contractor"})
	require.NoError(t, err)
	settled, err := l.customers.Create(ctx, customers.Input{Name: "Settled Account"})
	require.NoError(t, err)

	l.sell(t, sales.CreateSaleInput{PaymentMethod: "credit", CustomerID: &small.ID, Items: []sales.ItemInput{item(door.ID, 1, 1000)}})
	l.sell(t, sales.CreateSaleInput{PaymentMethod: "credit", CustomerID: &big.ID, Items: []sales.ItemInput{item(door.ID, 2, 2500)}})
	s := l.sell(t, sales.CreateSaleInput{PaymentMethod: "credit", CustomerID: &settled.ID, Items: []sales.ItemInput{item(door.ID, 1, 700)}})
	_, err = l.payments.RecordPayment(ctx, ar.PaymentInput{SaleID: &s.ID, Amount: decimal.NewFromInt(700)})
	require.NoError(t, err)
	_, err = l.payments.RecordPayment(ctx, ar.PaymentInput{CustomerID: &big.ID, Amount: decimal.NewFromInt(2000)})
	require.NoError(t, err)

	summary, err := l.reports.CustomerCreditSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Customers, 2)
	require.Equal(t, big.ID, summary.Customers[0].CustomerID)
	requireMoney(t, 3000, summary.Customers[0].Balance)
	require.Equal(t, small.ID, summary.Customers[1].CustomerID)
	requireMoney(t, 4000, summary.TotalOutstanding)
}

func TestSummaryCacheServesUntilBumped(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := analytics.NewCache(client, time.Minute, nil)
	l := newLedger(t, cache)
	ctx := context.Background()
	lock := l.product(t, "Mortise Lock", "hardware")

	l.sell(t, sales.CreateSaleInput{PaymentMethod: "cash", Items: []sales.ItemInput{item(lock.ID, 1, 1000)}})
	rng := today(t, l.reports)
	first, err := l.reports.SalesSummary(ctx, rng)
	require.NoError(t, err)
	requireMoney(t, 1000, first.Revenue)
	require.Len(t, mr.Keys(), 2)

	l.sell(t, sales.CreateSaleInput{PaymentMethod: "cash", Items: []sales.ItemInput{item(lock.ID, 1, 1000)}})
	cached, err := l.reports.SalesSummary(ctx, rng)
	require.NoError(t, err)
	requireMoney(t, 1000, cached.Revenue)

	ver, err := cache.Bump(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), ver)
	fresh, err := l.reports.SalesSummary(ctx, rng)
	require.NoError(t, err)
	requireMoney(t, 2000, fresh.Revenue)
}

func TestCacheFallsBackWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l := newLedger(t, analytics.NewCache(client, time.Minute, nil))
	mr.Close()

	summary, err := l.reports.ExpenseSummary(context.Background(), today(t, l.reports))
	require.NoError(t, err)
	require.Empty(t, summary.Categories)
}
