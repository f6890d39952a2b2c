package ar

import (
	"context"
	"log/slog"
	"time"

	"github.com/odyssey-erp/shopledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListSalePayments(ctx context.Context, saleID int64) ([]Payment, error)
	ListCustomerPayments(ctx context.Context, customerID int64) ([]Payment, error)
	Balance(ctx context.Context, customerID int64) (Balance, error)
	Outstanding(ctx context.Context) ([]Balance, error)
}

// ChangeNotifier is told after a payment commits.
type ChangeNotifier interface {
	LedgerChanged(ctx context.Context, source string)
}

// SourcePayment tags payment mutations.
const SourcePayment = "ar.payment"

// Service records collections and derives balances.
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

// RecordPayment stores a payment. When it targets a sale the sale's status is
// recomputed in the same transaction, and a missing customer defaults to the
// sale's customer.
func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (Payment, error) {
	if input.PaymentMethod == "" {
		input.PaymentMethod = DefaultPaymentMethod
	}
	if err := shared.ValidateStruct(input); err != nil {
		return Payment{}, err
	}
	if input.SaleID == nil && input.CustomerID == nil {
		return Payment{}, shared.NewValidationError("sale_id", "a sale or a customer is required")
	}

	var (
		payment Payment
		status  PaymentStatus
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.SaleID != nil {
			ref, err := tx.GetSaleRef(ctx, *input.SaleID)
			if err != nil {
				return err
			}
			switch {
			case input.CustomerID == nil:
				input.CustomerID = ref.CustomerID
			case ref.CustomerID == nil || *ref.CustomerID != *input.CustomerID:
				return shared.NewValidationError("customer_id", "does not match the sale's customer")
			}
		} else {
			ok, err := tx.CustomerExists(ctx, *input.CustomerID)
			if err != nil {
				return err
			}
			if !ok {
				return &shared.NotFound{Entity: "customer", ID: *input.CustomerID}
			}
		}

		id, err := tx.InsertPayment(ctx, input, s.now())
		if err != nil {
			return err
		}
		if input.SaleID != nil {
			if status, err = tx.RefreshSaleStatus(ctx, *input.SaleID); err != nil {
				return err
			}
		}
		payment, err = tx.GetPayment(ctx, id)
		return err
	})
	if err != nil {
		return Payment{}, err
	}

	attrs := []any{slog.Int64("payment_id", payment.ID), slog.String("amount", payment.Amount.String())}
	if status != "" {
		attrs = append(attrs, slog.Int64("sale_id", *payment.SaleID), slog.String("status", string(status)))
	}
	s.logger.Info("payment recorded", attrs...)
	if s.notifier != nil {
		s.notifier.LedgerChanged(ctx, SourcePayment)
	}
	return payment, nil
}

// ListSalePayments returns payments recorded against a sale.
func (s *Service) ListSalePayments(ctx context.Context, saleID int64) ([]Payment, error) {
	return s.repo.ListSalePayments(ctx, saleID)
}

// ListCustomerPayments returns a customer's payments.
func (s *Service) ListCustomerPayments(ctx context.Context, customerID int64) ([]Payment, error) {
	return s.repo.ListCustomerPayments(ctx, customerID)
}

// CustomerBalance returns total sales minus total payments for a customer.
func (s *Service) CustomerBalance(ctx context.Context, customerID int64) (Balance, error) {
	return s.repo.Balance(ctx, customerID)
}

// ListOutstanding returns customers with a positive balance, largest first.
func (s *Service) ListOutstanding(ctx context.Context) ([]Balance, error) {
	return s.repo.Outstanding(ctx)
}
