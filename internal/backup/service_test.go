package backup_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/backup"
	"github.com/odyssey-erp/shopledger/internal/customers"
	"github.com/odyssey-erp/shopledger/internal/expenses"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/sales"
	"github.com/odyssey-erp/shopledger/internal/shared"
	"github.com/odyssey-erp/shopledger/internal/testing/dbtest"
)

func seedLedger(t *testing.T, conn *sqlx.DB) {
	t.Helper()
	ctx := context.Background()
	inv := inventory.NewService(inventory.NewRepository(conn), nil, nil)
	cust := customers.NewService(customers.NewRepository(conn), nil)
	sell := sales.NewService(sales.NewRepository(conn), nil, nil)
	pay := ar.NewService(ar.NewRepository(conn), nil, nil)
	exp := expenses.NewService(expenses.NewRepository(conn), nil)

	wholesale := decimal.NewNullDecimal(decimal.RequireFromString("3100.5"))
	door, err := inv.CreateProduct(ctx, inventory.CreateProductInput{
		ProductInput: inventory.ProductInput{
			Name:           "Premium Oak Door",
			Category:       "doors",
			Description:    "Solid oak, 7ft",
			RetailPrice:    decimal.RequireFromString("3800.75"),
			WholesalePrice: wholesale,
		},
		InitialStock: 12,
	})
	require.NoError(t, err)
	handle, err := inv.CreateProduct(ctx, inventory.CreateProductInput{
		ProductInput: inventory.ProductInput{Name: "Lever Handle", Category: "hardware", RetailPrice: decimal.NewFromInt(950)},
		InitialStock: 40,
	})
	require.NoError(t, err)
	buyer, err := cust.Create(ctx, customers.Input{Name: "Riaz Construction", Phone: "0300-1234567", City: "Lahore"})
	require.NoError(t, err)

	credit, err := sell.CreateSale(ctx, sales.CreateSaleInput{
		PaymentMethod: "credit",
		CustomerID:    &buyer.ID,
		Items: []sales.ItemInput{
			{ProductID: door.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("3800.75")},
			{ProductID: handle.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(950)},
		},
	})
	require.NoError(t, err)
	_, err = sell.CreateSale(ctx, sales.CreateSaleInput{
		PaymentMethod: "cash",
		Guest:         &sales.Guest{Name: "Walk-in"},
		Items:         []sales.ItemInput{{ProductID: handle.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(950)}},
	})
	require.NoError(t, err)
	_, err = pay.RecordPayment(ctx, ar.PaymentInput{SaleID: &credit.ID, Amount: decimal.NewFromInt(5000), Notes: "first installment"})
	require.NoError(t, err)
	_, err = inv.AdjustStock(ctx, inventory.AdjustInput{ProductID: door.ID, Delta: -1, Type: inventory.MovementAdjustment, Notes: "damaged"})
	require.NoError(t, err)
	_, err = exp.Create(ctx, expenses.Input{Category: "Transport", Amount: decimal.NewFromInt(650), Description: "Delivery van"})
	require.NoError(t, err)
}

func tables(t *testing.T, doc backup.Document) string {
	t.Helper()
	doc.Meta = backup.Meta{}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(raw)
}

func TestExportRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := dbtest.Open(t)
	seedLedger(t, src)
	original, err := backup.NewService(backup.NewRepository(src), nil, nil).Export(ctx)
	require.NoError(t, err)
	require.Equal(t, backup.FormatVersion, original.Meta.Version)
	require.Len(t, original.Products, 2)
	require.Len(t, original.Sales, 2)
	require.Len(t, original.SaleItems, 3)

	var buf bytes.Buffer
	require.NoError(t, backup.Encode(&buf, original))
	decoded, err := backup.Decode(&buf)
	require.NoError(t, err)

	dst := dbtest.Open(t)
	svc := backup.NewService(backup.NewRepository(dst), nil, nil)
	counts, err := svc.Restore(ctx, decoded)
	require.NoError(t, err)
	require.Equal(t, len(original.StockHistory), counts.StockHistory)
	require.Equal(t, 2, counts.Payments)

	restored, err := svc.Export(ctx)
	require.NoError(t, err)
	require.JSONEq(t, tables(t, original), tables(t, restored))
}

func TestRestoreReplacesExistingRows(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	seedLedger(t, conn)
	svc := backup.NewService(backup.NewRepository(conn), nil, nil)

	empty := backup.Document{
		Meta:      backup.Meta{Version: backup.FormatVersion},
		Products:  []inventory.Product{},
		Customers: []customers.Customer{},
	}
	_, err := svc.Restore(ctx, empty)
	require.NoError(t, err)
	for _, table := range []string{"products", "customers", "sales", "sale_items", "payments", "expenses", "stock_history"} {
		require.Zero(t, dbtest.Count(t, conn, table, ""), table)
	}
}

func TestRestoreIsAtomic(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	seedLedger(t, conn)
	svc := backup.NewService(backup.NewRepository(conn), nil, nil)
	before, err := svc.Export(ctx)
	require.NoError(t, err)

	broken := before
	broken.SaleItems = append([]sales.SaleItem{}, before.SaleItems...)
	broken.SaleItems = append(broken.SaleItems, sales.SaleItem{ID: 999, SaleID: 424242, ProductID: before.Products[0].ID, Quantity: 1})

	_, err = svc.Restore(ctx, broken)
	require.ErrorIs(t, err, shared.ErrConstraint)

	after, err := svc.Export(ctx)
	require.NoError(t, err)
	require.JSONEq(t, tables(t, before), tables(t, after))
}

func TestDecodeRejectsMalformedDocuments(t *testing.T) {
	_, err := backup.Decode(strings.NewReader(`{"meta":{"version":"1.0.0"},"products":[],"customers":[],"orders":[]}`))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = backup.Decode(strings.NewReader(`{"meta":{"version":"2.0.0"},"products":[]}`))
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "meta.version")
	require.Contains(t, verr.Fields, "customers")
}

func TestExportToDirAndRestoreFile(t *testing.T) {
	ctx := context.Background()
	src := dbtest.Open(t)
	seedLedger(t, src)
	dir := t.TempDir()
	path, err := backup.NewService(backup.NewRepository(src), nil, nil).ExportToDir(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(path))
	require.True(t, strings.HasPrefix(filepath.Base(path), backup.FilePrefix))

	dst := dbtest.Open(t)
	counts, err := backup.NewService(backup.NewRepository(dst), nil, nil).RestoreFile(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 2, counts.Sales)
	require.Equal(t, 1, counts.Expenses)
}
