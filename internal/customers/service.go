package customers

import (
	"context"
	"time"

	"github.com/odyssey-erp/shopledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Create(ctx context.Context, in Input, at time.Time) (Customer, error)
	Update(ctx context.Context, id int64, in Input) (Customer, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (Customer, error)
	List(ctx context.Context, query string) ([]Customer, error)
}

// ChangeNotifier is told after customer rows change.
type ChangeNotifier interface {
	LedgerChanged(ctx context.Context, source string)
}

// SourceCustomer tags customer mutations.
const SourceCustomer = "customers"

// Service manages customer records.
type Service struct {
	repo     RepositoryPort
	notifier ChangeNotifier
}

// NewService builds Service.
func NewService(repo RepositoryPort, notifier ChangeNotifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Create validates and stores a customer.
func (s *Service) Create(ctx context.Context, in Input) (Customer, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Customer{}, err
	}
	c, err := s.repo.Create(ctx, in, time.Now().UTC())
	if err != nil {
		return Customer{}, err
	}
	s.changed(ctx)
	return c, nil
}

// Update validates and overwrites a customer.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Customer, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Customer{}, err
	}
	c, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Customer{}, err
	}
	s.changed(ctx)
	return c, nil
}

// Delete removes a customer.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

// Search lists customers whose name, phone or city contains query.
func (s *Service) Search(ctx context.Context, query string) ([]Customer, error) {
	return s.repo.List(ctx, query)
}

func (s *Service) changed(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.LedgerChanged(ctx, SourceCustomer)
	}
}
