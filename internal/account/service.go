package account

import (
	"context"
	"errors"
	"time"
)

// Service enforces the account lifecycle rules: uniqueness preconditions,
// default status and timestamp stamping. Every mutating operation runs in a
// single repository transaction.
type Service struct {
	repo    Repository
	matcher Matcher
}

func NewService(repo Repository, matcher Matcher) *Service {
	return &Service{repo: repo, matcher: matcher}
}

// CreateAccount checks username then email uniqueness, applies defaults for
// fields the caller left unset and persists the account. The stored entity
// with its assigned id is returned.
func (s *Service) CreateAccount(ctx context.Context, acc Account) (Account, error) {
	var created Account
	err := s.repo.InTx(ctx, func(repo Repository) error {
		if acc.Username != "" {
			if _, err := repo.FindByUsername(ctx, acc.Username); err == nil {
				return ErrUsernameExists
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		if acc.Email != "" {
			if _, err := repo.FindByEmail(ctx, acc.Email); err == nil {
				return ErrEmailExists
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		if acc.Password != "" {
			stored, err := s.matcher.Hash(acc.Password)
			if err != nil {
				return err
			}
			acc.Password = stored
		}

		now := time.Now()
		if acc.CreatedAt == nil {
			acc.CreatedAt = &now
		}
		if acc.UpdatedAt == nil {
			acc.UpdatedAt = &now
		}
		if acc.Status == "" {
			acc.Status = StatusActive
		}

		stored, err := repo.Save(ctx, acc)
		if err != nil {
			return err
		}

		created = stored
		return nil
	})
	if err != nil {
		return Account{}, err
	}

	return created, nil
}

// UpdateAccount persists the supplied account as-is. Callers are expected to
// pass an entity whose id was assigned by a previous save; no existence
// check is performed here.
func (s *Service) UpdateAccount(ctx context.Context, acc Account) error {
	return s.repo.InTx(ctx, func(repo Repository) error {
		_, err := repo.Save(ctx, acc)
		return err
	})
}
