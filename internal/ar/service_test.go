package ar_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/customers"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/sales"
	"github.com/odyssey-erp/shopledger/internal/shared"
	"github.com/odyssey-erp/shopledger/internal/testing/dbtest"
)

type env struct {
	conn      *sqlx.DB
	ar        *ar.Service
	sales     *sales.Service
	customers *customers.Service
	productID int64
}

func newEnv(t *testing.T) env {
	t.Helper()
	conn := dbtest.Open(t)
	inv := inventory.NewService(inventory.NewRepository(conn), nil, nil)
	p, err := inv.CreateProduct(context.Background(), inventory.CreateProductInput{
		ProductInput: inventory.ProductInput{Name: "Premium Oak Door", Category: "doors", RetailPrice: decimal.NewFromInt(1000)},
		InitialStock: 100,
	})
	require.NoError(t, err)
	return env{
		conn:      conn,
		ar:        ar.NewService(ar.NewRepository(conn), nil, nil),
		sales:     sales.NewService(sales.NewRepository(conn), nil, nil),
		customers: customers.NewService(customers.NewRepository(conn), nil),
		productID: p.ID,
	}
}

func (e env) creditSale(t *testing.T, customerID int64, amount int64) sales.Sale {
	t.Helper()
	sale, err := e.sales.CreateSale(context.Background(), sales.CreateSaleInput{
		CustomerID:    &customerID,
		PaymentMethod: "credit",
		Items:         []sales.ItemInput{{ProductID: e.productID, Quantity: 1, UnitPrice: decimal.NewFromInt(amount)}},
	})
	require.NoError(t, err)
	return sale
}

func saleStatus(t *testing.T, conn *sqlx.DB, id int64) ar.PaymentStatus {
	t.Helper()
	var status ar.PaymentStatus
	require.NoError(t, conn.Get(&status, `SELECT payment_status FROM sales WHERE id = ?`, id))
	return status
}

func TestRecordPaymentMovesStatusToPaid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	buyer, err := e.customers.Create(ctx, customers.Input{Name: "Sara Home Interiors"})
	require.NoError(t, err)
	sale := e.creditSale(t, buyer.ID, 1000)
	require.Equal(t, ar.StatusPending, sale.PaymentStatus)

	payment, err := e.ar.RecordPayment(ctx, ar.PaymentInput{SaleID: &sale.ID, Amount: decimal.NewFromInt(400)})
	require.NoError(t, err)
	require.Equal(t, buyer.ID, *payment.CustomerID)
	require.Equal(t, "cash", payment.PaymentMethod)
	require.Equal(t, ar.StatusPartial, saleStatus(t, e.conn, sale.ID))

	_, err = e.ar.RecordPayment(ctx, ar.PaymentInput{SaleID: &sale.ID, Amount: decimal.NewFromInt(600), PaymentMethod: "card"})
	require.NoError(t, err)
	require.Equal(t, ar.StatusPaid, saleStatus(t, e.conn, sale.ID))

	payments, err := e.ar.ListSalePayments(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
}

func TestRecordPaymentValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	missing := int64(77)

	_, err := e.ar.RecordPayment(ctx, ar.PaymentInput{Amount: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = e.ar.RecordPayment(ctx, ar.PaymentInput{SaleID: &missing, Amount: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = e.ar.RecordPayment(ctx, ar.PaymentInput{SaleID: &missing, Amount: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = e.ar.RecordPayment(ctx, ar.PaymentInput{CustomerID: &missing, Amount: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.Zero(t, dbtest.Count(t, e.conn, "payments", ""))
}

func TestCustomerBalanceAndCreditSummary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	buyer, err := e.customers.Create(ctx, customers.Input{Name: "Al-Noor Builders"})
	require.NoError(t, err)
	other, err := e.customers.Create(ctx, customers.Input{Name: "Settled Buyer"})
	require.NoError(t, err)
	small, err := e.customers.Create(ctx, customers.Input{Name: "Small Debtor"})
	require.NoError(t, err)

	e.creditSale(t, buyer.ID, 2000)
	e.creditSale(t, buyer.ID, 3000)
	_, err = e.ar.RecordPayment(ctx, ar.PaymentInput{CustomerID: &buyer.ID, Amount: decimal.NewFromInt(2000)})
	require.NoError(t, err)

	settled := e.creditSale(t, other.ID, 700)
	_, err = e.ar.RecordPayment(ctx, ar.PaymentInput{SaleID: &settled.ID, Amount: decimal.NewFromInt(700)})
	require.NoError(t, err)

	e.creditSale(t, small.ID, 150)

	balance, err := e.ar.CustomerBalance(ctx, buyer.ID)
	require.NoError(t, err)
	require.True(t, balance.TotalSales.Equal(decimal.NewFromInt(5000)), balance.TotalSales.String())
	require.True(t, balance.TotalPaid.Equal(decimal.NewFromInt(2000)))
	require.True(t, balance.Balance.Equal(decimal.NewFromInt(3000)))

	outstanding, err := e.ar.ListOutstanding(ctx)
	require.NoError(t, err)
	require.Len(t, outstanding, 2)
	require.Equal(t, buyer.ID, outstanding[0].CustomerID)
	require.Equal(t, small.ID, outstanding[1].CustomerID)

	_, err = e.ar.CustomerBalance(ctx, 4040)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPaymentCustomerMustMatchSale(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, err := e.customers.Create(ctx, customers.Input{Name: "A"})
	require.NoError(t, err)
	b, err := e.customers.Create(ctx, customers.Input{Name: "B"})
	require.NoError(t, err)
	sale := e.creditSale(t, a.ID, 500)

	_, err = e.ar.RecordPayment(ctx, ar.PaymentInput{SaleID: &sale.ID, CustomerID: &b.ID, Amount: decimal.NewFromInt(100)})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, ar.StatusPending, saleStatus(t, e.conn, sale.ID))
}

func TestDeriveStatus(t *testing.T) {
	total := decimal.NewFromInt(1000)
	require.Equal(t, ar.StatusPending, ar.DeriveStatus(decimal.Zero, total))
	require.Equal(t, ar.StatusPartial, ar.DeriveStatus(decimal.NewFromInt(400), total))
	require.Equal(t, ar.StatusPaid, ar.DeriveStatus(decimal.NewFromInt(1000), total))
	require.Equal(t, ar.StatusPaid, ar.DeriveStatus(decimal.NewFromInt(1200), total))
}
