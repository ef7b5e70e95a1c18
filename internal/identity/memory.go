package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"parceltrack/internal/apperr"
)

// memoryStore is an in-memory Store for tests and local runs.
type memoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
}

func NewMemoryStore() Store {
	return &memoryStore{accounts: make(map[uuid.UUID]*Account)}
}

func (s *memoryStore) CreateAccount(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Email == account.Email || existing.Username == account.Username {
			return apperr.Duplicate("an account with this username or email already exists")
		}
	}

	stored := *account
	stored.CreatedAt = time.Now()
	s.accounts[account.ID] = &stored
	account.CreatedAt = stored.CreatedAt
	return nil
}

func (s *memoryStore) AccountByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("account not found")
}

func (s *memoryStore) AccountByID(_ context.Context, id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, apperr.NotFound("account not found")
	}
	copied := *account
	return &copied, nil
}
