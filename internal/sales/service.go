package sales

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/shopledger/internal/ar"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetDetail(ctx context.Context, id int64) (SaleDetail, error)
	List(ctx context.Context, filter ListFilter) ([]SaleSummary, int, error)
}

// ChangeNotifier is told after a sale commits or is reversed.
type ChangeNotifier interface {
	LedgerChanged(ctx context.Context, source string)
}

// Ledger change sources emitted by this package.
const (
	SourceSaleCreated = "sales.create"
	SourceSaleDeleted = "sales.delete"
)

// Service books and reverses sales.
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

// CreateSale books a sale in one transaction: header, lines, a stock movement
// per line, initial payments and the derived payment status. Any failure
// leaves no trace of the sale.
func (s *Service) CreateSale(ctx context.Context, input CreateSaleInput) (Sale, error) {
	if err := s.validate(input); err != nil {
		return Sale{}, err
	}
	total := input.Total()
	payments := input.Payments
	if len(payments) == 0 && !input.DeferPayment && input.PaymentMethod != MethodCredit {
		payments = []InitialPayment{{Amount: total, PaymentMethod: input.PaymentMethod, Notes: "Auto payment on sale"}}
	}

	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		at := s.now()
		if input.CustomerID != nil {
			ok, err := tx.CustomerExists(ctx, *input.CustomerID)
			if err != nil {
				return err
			}
			if !ok {
				return &shared.NotFound{Entity: "customer", ID: *input.CustomerID}
			}
		}

		invoice := strings.TrimSpace(input.InvoiceNumber)
		if invoice == "" {
			var err error
			if invoice, err = tx.NextInvoiceNumber(ctx); err != nil {
				return err
			}
		}
		saleDate := input.SaleDate
		if saleDate.IsZero() {
			saleDate = at
		}
		header := Sale{
			InvoiceNumber: invoice,
			CustomerID:    input.CustomerID,
			TotalAmount:   total,
			PaymentMethod: input.PaymentMethod,
			PaymentStatus: ar.StatusPending,
			SaleDate:      saleDate.UTC(),
		}
		if notes := input.StoredNotes(); notes != "" {
			header.Notes = &notes
		}
		saleID, err := tx.InsertSale(ctx, header)
		if err != nil {
			return err
		}

		for _, item := range input.Items {
			err := tx.ApplyMovement(ctx, inventory.Movement{
				ProductID: item.ProductID,
				Delta:     -item.Quantity,
				Type:      inventory.MovementSale,
				Notes:     saleNote(invoice),
			}, at)
			if err != nil {
				return err
			}
			err = tx.InsertItem(ctx, SaleItem{
				SaleID:     saleID,
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				TotalPrice: item.LineTotal(),
			})
			if err != nil {
				return err
			}
		}

		for _, p := range payments {
			method := p.PaymentMethod
			if method == "" {
				method = input.PaymentMethod
				if method == MethodCredit {
					method = ar.DefaultPaymentMethod
				}
			}
			_, err := tx.InsertPayment(ctx, ar.PaymentInput{
				SaleID:        &saleID,
				CustomerID:    input.CustomerID,
				Amount:        p.Amount,
				PaymentMethod: method,
				PaymentDate:   saleDate.UTC(),
				Notes:         p.Notes,
			}, at)
			if err != nil {
				return err
			}
		}

		if _, err := tx.RefreshStatus(ctx, saleID); err != nil {
			return err
		}
		sale, err = tx.GetSale(ctx, saleID)
		return err
	})
	if err != nil {
		return Sale{}, err
	}

	s.logger.Info("sale created",
		slog.Int64("sale_id", sale.ID),
		slog.String("invoice", sale.InvoiceNumber),
		slog.String("total", sale.TotalAmount.String()),
		slog.String("status", string(sale.PaymentStatus)),
		slog.Int("items", len(input.Items)))
	s.changed(ctx, SourceSaleCreated)
	return sale, nil
}

// DeleteSale reverses a sale: every line's quantity is booked back as an
// adjustment, then lines, payments and the header are removed. The reversal
// movements stay in the stock history.
func (s *Service) DeleteSale(ctx context.Context, saleID int64) error {
	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if sale, err = tx.GetSale(ctx, saleID); err != nil {
			return err
		}
		items, err := tx.ListItems(ctx, saleID)
		if err != nil {
			return err
		}
		at := s.now()
		for _, item := range items {
			err := tx.ApplyMovement(ctx, inventory.Movement{
				ProductID: item.ProductID,
				Delta:     item.Quantity,
				Type:      inventory.MovementAdjustment,
				Notes:     reversalNote(sale.InvoiceNumber),
			}, at)
			if err != nil {
				return err
			}
		}
		return tx.DeleteSale(ctx, saleID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("sale deleted", slog.Int64("sale_id", saleID), slog.String("invoice", sale.InvoiceNumber))
	s.changed(ctx, SourceSaleDeleted)
	return nil
}

// GetSale returns a sale with lines, payments and the amount still due.
func (s *Service) GetSale(ctx context.Context, id int64) (SaleDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return SaleDetail{}, err
	}
	paid := decimal.Zero
	for _, p := range detail.Payments {
		paid = paid.Add(p.Amount)
	}
	detail.Paid = shared.RoundMoney(paid)
	detail.Due = decimal.Max(decimal.Zero, detail.TotalAmount.Sub(detail.Paid))
	return detail, nil
}

// ListSales returns a page of sales matching filter.
func (s *Service) ListSales(ctx context.Context, filter ListFilter) (ListResult, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Sales: rows, Pagination: shared.NewPagination(filter.Page, filter.PerPage, total)}, nil
}

// ListByCustomer returns a customer's sales, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64, page int) (ListResult, error) {
	return s.ListSales(ctx, ListFilter{CustomerID: customerID, Page: page, PerPage: 50})
}

func (s *Service) validate(input CreateSaleInput) error {
	if err := shared.ValidateStruct(input); err != nil {
		return err
	}
	verr := &shared.ValidationError{}
	if input.Guest != nil && input.CustomerID != nil {
		verr.Add("guest", "a sale is either for a customer or a guest")
	}
	if input.PaymentMethod == MethodCredit && input.CustomerID == nil {
		verr.Add("payment_method", "credit sales need a customer")
	}
	for _, item := range input.Items {
		if !item.UnitPrice.Equal(shared.RoundMoney(item.UnitPrice)) {
			verr.Add("items", "unit price must have at most 2 decimal places")
			break
		}
	}
	total := input.Total()
	if !total.IsPositive() {
		verr.Add("items", "sale total must be greater than 0")
	}
	paid := decimal.Zero
	for _, p := range input.Payments {
		paid = paid.Add(p.Amount)
	}
	if paid.GreaterThan(total) {
		verr.Add("payments", "initial payments exceed the sale total")
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

func (s *Service) changed(ctx context.Context, source string) {
	if s.notifier != nil {
		s.notifier.LedgerChanged(ctx, source)
	}
}
