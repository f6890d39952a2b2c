package settings

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/shopledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Values(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, values map[string]string) error
	Security(ctx context.Context) (SecurityRecord, error)
	SetLock(ctx context.Context, pinHash *string, enabled bool) error
	TouchAuth(ctx context.Context, at time.Time) error
}

// Service manages preferences and the app lock. The ledger never consults it.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	cost   int
	now    func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, cost: bcrypt.DefaultCost, now: func() time.Time { return time.Now().UTC() }}
}

// GetPreferences merges stored values over the defaults.
func (s *Service) GetPreferences(ctx context.Context) (Preferences, error) {
	values, err := s.repo.Values(ctx)
	if err != nil {
		return Preferences{}, err
	}
	prefs := DefaultPreferences()
	for k, v := range values {
		prefs.apply(k, v)
	}
	return prefs, nil
}

// SetPreference validates and stores one preference.
func (s *Service) SetPreference(ctx context.Context, key, value string) (Preferences, error) {
	return s.UpdatePreferences(ctx, map[string]string{key: value})
}

// UpdatePreferences validates every value before storing any of them.
func (s *Service) UpdatePreferences(ctx context.Context, values map[string]string) (Preferences, error) {
	verr := &shared.ValidationError{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rule, ok := preferenceRules[k]
		if !ok {
			verr.Add(k, "unknown setting")
			continue
		}
		if err := shared.ValidateVar(k, values[k], rule); err != nil {
			var fieldErr *shared.ValidationError
			if !errors.As(err, &fieldErr) {
				return Preferences{}, err
			}
			verr.Add(k, fieldErr.Fields[k])
		}
	}
	if !verr.Empty() {
		return Preferences{}, verr
	}
	if err := s.repo.Put(ctx, values); err != nil {
		return Preferences{}, err
	}
	s.logger.Info("preferences updated", slog.Any("keys", keys))
	return s.GetPreferences(ctx)
}

// SecurityStatus reports whether the lock is on.
func (s *Service) SecurityStatus(ctx context.Context) (Security, error) {
	row, err := s.repo.Security(ctx)
	if err != nil {
		return Security{}, err
	}
	return Security{LockEnabled: row.LockEnabled, HasPIN: row.PINHash != nil, LastAuth: row.LastAuth}, nil
}

// EnableLock hashes pin and turns the lock on.
func (s *Service) EnableLock(ctx context.Context, in PINInput) error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.PIN), s.cost)
	if err != nil {
		return err
	}
	encoded := string(hash)
	if err := s.repo.SetLock(ctx, &encoded, true); err != nil {
		return err
	}
	s.logger.Info("app lock enabled")
	return nil
}

// DisableLock clears the PIN and turns the lock off.
func (s *Service) DisableLock(ctx context.Context) error {
	if err := s.repo.SetLock(ctx, nil, false); err != nil {
		return err
	}
	s.logger.Info("app lock disabled")
	return nil
}

// VerifyPIN checks pin against the stored hash and records the unlock time.
// Without a stored PIN every attempt fails.
func (s *Service) VerifyPIN(ctx context.Context, in PINInput) error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	row, err := s.repo.Security(ctx)
	if err != nil {
		return err
	}
	if row.PINHash == nil {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*row.PINHash), []byte(in.PIN)); err != nil {
		s.logger.Warn("pin verification failed")
		return shared.ErrInvalidCredentials
	}
	return s.repo.TouchAuth(ctx, s.now())
}
