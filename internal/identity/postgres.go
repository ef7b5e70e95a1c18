package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"parceltrack/internal/apperr"
)

// postgresStore persists accounts in PostgreSQL.
type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) CreateAccount(ctx context.Context, account *Account) error {
	roles := make([]string, 0, len(account.Roles))
	for _, r := range account.Roles {
		roles = append(roles, string(r))
	}

	query := `
		INSERT INTO accounts (id, username, email, password_hash, salt, roles, courier_id, client_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		account.ID, account.Username, account.Email, account.PasswordHash,
		account.Salt, pq.Array(roles), account.CourierID, account.ClientID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperr.Duplicate("an account with this username or email already exists")
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (s *postgresStore) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	return s.queryAccount(ctx, `
		SELECT id, username, email, password_hash, salt, roles, courier_id, client_id, created_at
		FROM accounts
		WHERE email = $1
	`, email)
}

func (s *postgresStore) AccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.queryAccount(ctx, `
		SELECT id, username, email, password_hash, salt, roles, courier_id, client_id, created_at
		FROM accounts
		WHERE id = $1
	`, id)
}

func (s *postgresStore) queryAccount(ctx context.Context, query string, arg any) (*Account, error) {
	account := &Account{}
	var roles []string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Salt,
		pq.Array(&roles),
		&account.CourierID,
		&account.ClientID,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("account not found")
		}
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	for _, r := range roles {
		role, err := ParseRole(r)
		if err != nil {
			return nil, err
		}
		account.Roles = append(account.Roles, role)
	}
	return account, nil
}
