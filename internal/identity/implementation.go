package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"parceltrack/internal/apperr"
)

// service implements the Service interface.
type service struct {
	store       Store
	tokens      *TokenManager
	rateLimiter *rate.Limiter
}

// NewService creates a new identity service instance.
func NewService(store Store, tokens *TokenManager) Service {
	return &service{
		store:       store,
		tokens:      tokens,
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 attempts per minute
	}
}

// Register provisions an account with its role set and optional
// courier/sender links.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, apperr.Invalid("username is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, apperr.Invalid("email is required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Invalid("password must be at least 8 characters")
	}
	if len(req.Roles) == 0 {
		return nil, apperr.Invalid("at least one role is required")
	}

	account := &Account{
		ID:       uuid.New(),
		Username: req.Username,
		Email:    req.Email,
	}
	for _, r := range req.Roles {
		role, err := ParseRole(r)
		if err != nil {
			return nil, err
		}
		account.Roles = append(account.Roles, role)
	}
	if req.CourierID != "" {
		id, err := uuid.Parse(req.CourierID)
		if err != nil {
			return nil, apperr.Invalid("invalid courier id: %s", req.CourierID)
		}
		account.CourierID = &id
	}
	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			return nil, apperr.Invalid("invalid client id: %s", req.ClientID)
		}
		account.ClientID = &id
	}

	passwordHash, salt, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = passwordHash
	account.Salt = salt

	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Authenticate verifies credentials and returns a signed bearer token for
// the account.
func (s *service) Authenticate(ctx context.Context, email, password string) (string, *Account, error) {
	if !s.rateLimiter.Allow() {
		return "", nil, fmt.Errorf("rate limit exceeded")
	}

	account, err := s.store.AccountByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("authentication failed: %w", err)
	}

	ok, err := verifyPassword(password, account.Salt, account.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("authentication failed: %w", err)
	}
	if !ok {
		return "", nil, fmt.Errorf("authentication failed: invalid credentials")
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return "", nil, err
	}
	return token, account, nil
}
