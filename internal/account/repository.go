package account

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

// Repository is the persistence boundary for accounts. Save inserts when the
// account has no id yet, otherwise updates. Lookups are exact and
// case-sensitive and report ErrNotFound when no row matches.
type Repository interface {
	Save(ctx context.Context, acc Account) (Account, error)
	FindByID(ctx context.Context, id int) (Account, error)
	FindAll(ctx context.Context) ([]Account, error)
	FindByUsername(ctx context.Context, username string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	// InTx runs fn against a repository bound to a single transaction and
	// rolls everything back when fn returns an error.
	InTx(ctx context.Context, fn func(Repository) error) error
}

type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts []Account
	nextID   int
}

func NewInMemoryRepository(seed []Account) *InMemoryRepository {
	repo := &InMemoryRepository{
		accounts: make([]Account, 0, len(seed)),
		nextID:   1,
	}

	maxID := 0
	for _, acc := range seed {
		repo.accounts = append(repo.accounts, acc)
		if acc.ID > maxID {
			maxID = acc.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) Save(ctx context.Context, acc Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// mirror the unique indexes the real schema carries
	for _, existing := range r.accounts {
		if existing.ID == acc.ID {
			continue
		}
		if acc.Username != "" && existing.Username == acc.Username {
			return Account{}, ErrUsernameExists
		}
		if acc.Email != "" && existing.Email == acc.Email {
			return Account{}, ErrEmailExists
		}
	}

	if acc.ID == 0 {
		acc.ID = r.nextID
		r.nextID++
		r.accounts = append(r.accounts, acc)
		return acc, nil
	}

	for i, existing := range r.accounts {
		if existing.ID == acc.ID {
			now := time.Now()
			acc.UpdatedAt = &now
			r.accounts[i] = acc
			return acc, nil
		}
	}

	return Account{}, ErrNotFound
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id int) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, acc := range r.accounts {
		if acc.ID == id {
			return acc, nil
		}
	}

	return Account{}, ErrNotFound
}

func (r *InMemoryRepository) FindAll(ctx context.Context) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]Account, len(r.accounts))
	copy(accounts, r.accounts)
	return accounts, nil
}

func (r *InMemoryRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, acc := range r.accounts {
		if acc.Username == username {
			return acc, nil
		}
	}

	return Account{}, ErrNotFound
}

func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, acc := range r.accounts {
		if acc.Email == email {
			return acc, nil
		}
	}

	return Account{}, ErrNotFound
}

func (r *InMemoryRepository) InTx(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}
