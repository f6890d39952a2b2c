package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/shopledger/internal/shared"
	"github.com/odyssey-erp/shopledger/internal/testing/dbtest"
)

type countingNotifier struct {
	mu      sync.Mutex
	sources []string
}

func (n *countingNotifier) LedgerChanged(_ context.Context, source string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sources = append(n.sources, source)
}

func newTestService(t *testing.T) (*Service, *Repository, *countingNotifier) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	notifier := &countingNotifier{}
	return NewService(repo, notifier, nil), repo, notifier
}

func createProduct(t *testing.T, svc *Service, name string, stock, minLevel int64) Product {
	t.Helper()
	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		ProductInput: ProductInput{
			Name:          name,
			Category:      "hardware",
			RetailPrice:   decimal.NewFromInt(500),
			MinStockLevel: &minLevel,
		},
		InitialStock: stock,
	})
	require.NoError(t, err)
	return product
}

func TestCreateProductBooksOpeningStock(t *testing.T) {
	svc, repo, notifier := newTestService(t)
	ctx := context.Background()

	product := createProduct(t, svc, "Stainless Steel Handle Set", 25, 5)
	require.Equal(t, int64(25), product.StockQuantity)
	require.Equal(t, int64(5), product.MinStockLevel)

	history, err := repo.ListHistory(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, MovementPurchase, history[0].Type)
	require.Equal(t, int64(25), history[0].QuantityChange)
	require.Equal(t, []string{SourceProduct}, notifier.sources)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		ProductInput: ProductInput{Category: "furniture", RetailPrice: decimal.NewFromInt(-1)},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "name")
	require.Contains(t, verr.Fields, "category")
	require.Contains(t, verr.Fields, "retail_price")
}

func TestCreateProductDefaultsMinStockLevel(t *testing.T) {
	svc, _, _ := newTestService(t)

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		ProductInput: ProductInput{Name: "Kitchen Cabinet Hinge", Category: "kitchen", RetailPrice: decimal.NewFromInt(650)},
	})
	require.NoError(t, err)
	require.Equal(t, int64(DefaultMinStockLevel), product.MinStockLevel)
	require.Equal(t, int64(0), product.StockQuantity)
	require.False(t, product.WholesalePrice.Valid)
}

func TestAdjustStockAppendsHistory(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, svc, "Premium Oak Door", 8, 2)

	updated, err := svc.AdjustStock(ctx, AdjustInput{ProductID: product.ID, Delta: -3, Type: MovementAdjustment, Notes: "damaged in transit"})
	require.NoError(t, err)
	require.Equal(t, int64(5), updated.StockQuantity)

	history, err := repo.ListHistory(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, int64(-3), history[0].QuantityChange)
	require.NotNil(t, history[0].Notes)
	require.Equal(t, "damaged in transit", *history[0].Notes)

	drift, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Empty(t, drift)
}

func TestAdjustStockAllowsOversell(t *testing.T) {
	svc, _, _ := newTestService(t)
	product := createProduct(t, svc, "Sliding Wardrobe Kit", 1, 3)

	updated, err := svc.AdjustStock(context.Background(), AdjustInput{ProductID: product.ID, Delta: -4, Type: MovementSale})
	require.NoError(t, err)
	require.Equal(t, int64(-3), updated.StockQuantity)
}

func TestAdjustStockUnknownProduct(t *testing.T) {
	svc, _, notifier := newTestService(t)

	_, err := svc.AdjustStock(context.Background(), AdjustInput{ProductID: 999, Delta: 4, Type: MovementPurchase})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, notifier.sources)
}

func TestAdjustStockRejectsZeroDelta(t *testing.T) {
	svc, _, _ := newTestService(t)
	product := createProduct(t, svc, "Door Stopper", 10, 5)

	_, err := svc.AdjustStock(context.Background(), AdjustInput{ProductID: product.ID, Type: MovementAdjustment})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AdjustStock(context.Background(), AdjustInput{ProductID: product.ID, Delta: 2, Type: MovementSnapshot})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestListLowStock(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	low := createProduct(t, svc, "Hinge", 3, 5)
	createProduct(t, svc, "Handle", 10, 5)
	lowest := createProduct(t, svc, "Lock", 1, 5)
	atThreshold := createProduct(t, svc, "Latch", 5, 5)

	products, err := svc.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	require.Equal(t, lowest.ID, products[0].ID)
	require.Equal(t, low.ID, products[1].ID)
	require.Equal(t, atThreshold.ID, products[2].ID)
	for _, p := range products {
		require.True(t, p.LowStock())
	}
}

func TestSnapshotAllStockKeepsQuantity(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	a := createProduct(t, svc, "A", 4, 1)
	b := createProduct(t, svc, "B", 0, 1)

	count, err := svc.SnapshotAllStock(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	for _, p := range []Product{a, b} {
		got, err := svc.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, p.StockQuantity, got.StockQuantity)

		history, err := repo.ListHistory(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, MovementSnapshot, history[0].Type)
		require.Zero(t, history[0].QuantityChange)
	}

	feed, err := svc.RecentMovements(ctx, 0)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	require.NotEmpty(t, feed[0].ProductName)
}

func TestConcurrentAdjustmentsKeepEveryDelta(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, svc, "Handle", 100, 5)

	const workers = 12
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			delta := int64(-1)
			if i%2 == 0 {
				delta = 3
			}
			_, err := svc.AdjustStock(ctx, AdjustInput{ProductID: product.ID, Delta: delta, Type: MovementAdjustment})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100+6*3-6), got.StockQuantity)

	drift, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Empty(t, drift)
}

func TestUpdateProductLeavesStockAlone(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, svc, "Handle", 7, 5)

	updated, err := svc.UpdateProduct(ctx, product.ID, ProductInput{
		Name:           "Handle Deluxe",
		Category:       "accessories",
		RetailPrice:    decimal.NewFromInt(900),
		WholesalePrice: decimal.NewNullDecimal(decimal.NewFromInt(750)),
	})
	require.NoError(t, err)
	require.Equal(t, "Handle Deluxe", updated.Name)
	require.Equal(t, int64(7), updated.StockQuantity)
	require.True(t, updated.RetailPrice.Equal(decimal.NewFromInt(900)))
	require.True(t, updated.WholesalePrice.Valid)

	_, err = svc.UpdateProduct(ctx, 404, ProductInput{Name: "x", Category: "doors"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteProductCascadesHistory(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, svc, "Handle", 7, 5)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID))
	history, err := repo.ListHistory(ctx, product.ID)
	require.NoError(t, err)
	require.Empty(t, history)

	require.ErrorIs(t, svc.DeleteProduct(ctx, product.ID), shared.ErrNotFound)
}
