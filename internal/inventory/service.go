package inventory

import (
	"context"
	"log/slog"
	"time"

	"github.com/odyssey-erp/shopledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	ListLowStock(ctx context.Context) ([]Product, error)
	ListHistory(ctx context.Context, productID int64) ([]StockHistory, error)
	RecentMovements(ctx context.Context, limit int) ([]MovementEntry, error)
	Reconcile(ctx context.Context) ([]Drift, error)
}

// Service coordinates product maintenance and the stock ledger.
type Service struct {
	repo     RepositoryPort
	notifier ChangeNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service. notifier and logger may be nil.
func NewService(repo RepositoryPort, notifier ChangeNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// CreateProduct inserts a product. A non-zero opening stock is booked as a
// purchase movement in the same transaction.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (Product, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return Product{}, err
	}
	var product Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		at := s.now()
		id, err := tx.InsertProduct(ctx, input, at)
		if err != nil {
			return err
		}
		if input.InitialStock != 0 {
			err = tx.ApplyMovement(ctx, Movement{
				ProductID: id,
				Delta:     input.InitialStock,
				Type:      MovementPurchase,
				Notes:     "Initial stock load",
			}, at)
			if err != nil {
				return err
			}
		}
		product, err = tx.GetProduct(ctx, id)
		return err
	})
	if err != nil {
		return Product{}, err
	}
	s.changed(ctx, SourceProduct)
	return product, nil
}

// UpdateProduct edits descriptive fields and prices. Quantity is untouched.
func (s *Service) UpdateProduct(ctx context.Context, id int64, input ProductInput) (Product, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return Product{}, err
	}
	var product Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateProduct(ctx, id, input, s.now()); err != nil {
			return err
		}
		var err error
		product, err = tx.GetProduct(ctx, id)
		return err
	})
	if err != nil {
		return Product{}, err
	}
	s.changed(ctx, SourceProduct)
	return product, nil
}

// DeleteProduct removes a product together with its sale lines and history.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	s.changed(ctx, SourceProduct)
	return nil
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts returns products matching filter.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	return s.repo.ListProducts(ctx, filter)
}

// ListLowStock returns products with stock at or below their minimum level.
func (s *Service) ListLowStock(ctx context.Context) ([]Product, error) {
	return s.repo.ListLowStock(ctx)
}

// ListHistory returns a product's movement log.
func (s *Service) ListHistory(ctx context.Context, productID int64) ([]StockHistory, error) {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, productID)
}

// RecentMovements returns the newest movements across products.
func (s *Service) RecentMovements(ctx context.Context, limit int) ([]MovementEntry, error) {
	if limit <= 0 || limit > RecentMovementLimit {
		limit = RecentMovementLimit
	}
	return s.repo.RecentMovements(ctx, limit)
}

// Reconcile lists products whose quantity drifted from their movement log.
func (s *Service) Reconcile(ctx context.Context) ([]Drift, error) {
	return s.repo.Reconcile(ctx)
}

// AdjustStock applies delta to a product and appends the matching history row atomically.
func (s *Service) AdjustStock(ctx context.Context, input AdjustInput) (Product, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return Product{}, err
	}
	switch {
	case input.Type == MovementSnapshot && input.Delta != 0:
		return Product{}, shared.NewValidationError("delta", "snapshot rows carry no quantity change")
	case input.Type != MovementSnapshot && input.Delta == 0:
		return Product{}, shared.NewValidationError("delta", "must not be zero")
	}
	var product Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		err := tx.ApplyMovement(ctx, Movement{
			ProductID: input.ProductID,
			Delta:     input.Delta,
			Type:      input.Type,
			Notes:     input.Notes,
		}, s.now())
		if err != nil {
			return err
		}
		product, err = tx.GetProduct(ctx, input.ProductID)
		return err
	})
	if err != nil {
		return Product{}, err
	}
	s.logger.Info("stock adjusted",
		slog.Int64("product_id", product.ID),
		slog.Int64("delta", input.Delta),
		slog.String("type", string(input.Type)),
		slog.Int64("stock", product.StockQuantity))
	s.changed(ctx, SourceAdjust)
	return product, nil
}

// SnapshotAllStock appends a zero-delta snapshot row for every product and
// returns how many rows were written.
func (s *Service) SnapshotAllStock(ctx context.Context) (int, error) {
	var count int
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ids, err := tx.ProductIDs(ctx)
		if err != nil {
			return err
		}
		at := s.now()
		for _, id := range ids {
			if err := tx.ApplyMovement(ctx, Movement{ProductID: id, Type: MovementSnapshot, Notes: "Stock snapshot"}, at); err != nil {
				return err
			}
		}
		count = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("stock snapshot recorded", slog.Int("products", count))
	s.changed(ctx, SourceSnapshot)
	return count, nil
}

func (s *Service) changed(ctx context.Context, source string) {
	if s.notifier != nil {
		s.notifier.LedgerChanged(ctx, source)
	}
}
