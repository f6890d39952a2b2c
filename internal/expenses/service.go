package expenses

import (
	"context"
	"time"

	"github.com/odyssey-erp/shopledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Create(ctx context.Context, in Input) (Expense, error)
	Update(ctx context.Context, id int64, in Input) (Expense, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (Expense, error)
	ListRange(ctx context.Context, rng shared.DateRange) ([]Expense, error)
}

// ChangeNotifier is told after expense rows change.
type ChangeNotifier interface {
	LedgerChanged(ctx context.Context, source string)
}

// SourceExpense tags expense mutations.
const SourceExpense = "expenses"

// Service manages expenses.
type Service struct {
	repo     RepositoryPort
	notifier ChangeNotifier
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, notifier ChangeNotifier) *Service {
	return &Service{repo: repo, notifier: notifier, now: func() time.Time { return time.Now().UTC() }}
}

// Create validates and stores an expense dated now unless a date is given.
func (s *Service) Create(ctx context.Context, in Input) (Expense, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Expense{}, err
	}
	if in.ExpenseDate.IsZero() {
		in.ExpenseDate = s.now()
	}
	e, err := s.repo.Create(ctx, in)
	if err != nil {
		return Expense{}, err
	}
	s.changed(ctx)
	return e, nil
}

// Update validates and overwrites an expense.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Expense, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Expense{}, err
	}
	if in.ExpenseDate.IsZero() {
		current, err := s.repo.Get(ctx, id)
		if err != nil {
			return Expense{}, err
		}
		in.ExpenseDate = current.ExpenseDate
	}
	e, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Expense{}, err
	}
	s.changed(ctx)
	return e, nil
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// ListRange returns expenses inside rng.
func (s *Service) ListRange(ctx context.Context, rng shared.DateRange) ([]Expense, error) {
	return s.repo.ListRange(ctx, rng)
}

func (s *Service) changed(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.LedgerChanged(ctx, SourceExpense)
	}
}
