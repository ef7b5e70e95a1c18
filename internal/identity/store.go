package identity

import (
	"context"

	"github.com/google/uuid"
)

// Store persists accounts.
type Store interface {
	CreateAccount(ctx context.Context, account *Account) error
	AccountByEmail(ctx context.Context, email string) (*Account, error)
	AccountByID(ctx context.Context, id uuid.UUID) (*Account, error)
}
