package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parceltrack/internal/apperr"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, salt, err := hashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEmpty(t, salt)

	ok, err := verifyPassword("correct horse battery staple", salt, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyPassword("wrong password", salt, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordUsesFreshSalt(t *testing.T) {
	hash1, salt1, err := hashPassword("secret-password")
	require.NoError(t, err)
	hash2, salt2, err := hashPassword("secret-password")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	courierID := uuid.New()

	account := &Account{
		ID:        uuid.New(),
		Username:  "max",
		Roles:     []Role{RoleCourier},
		CourierID: &courierID,
	}

	raw, err := tokens.Issue(account)
	require.NoError(t, err)

	principal, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, account.ID, principal.AccountID)
	assert.Equal(t, "max", principal.Username)
	assert.Equal(t, []Role{RoleCourier}, principal.Roles)
	require.NotNil(t, principal.CourierID)
	assert.Equal(t, courierID, *principal.CourierID)
	assert.Nil(t, principal.ClientID)
}

func TestTokenVerifyRejectsBadTokens(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	account := &Account{ID: uuid.New(), Username: "max", Roles: []Role{RoleManager}}

	raw, err := tokens.Issue(account)
	require.NoError(t, err)

	_, err = tokens.Verify(raw + "x")
	assert.Error(t, err, "tampered signature")

	other := NewTokenManager("different-secret", time.Hour)
	_, err = other.Verify(raw)
	assert.Error(t, err, "wrong secret")

	expired := NewTokenManager("test-secret", -time.Minute)
	raw, err = expired.Issue(account)
	require.NoError(t, err)
	_, err = expired.Verify(raw)
	assert.Error(t, err, "expired token")
}

func TestParseRole(t *testing.T) {
	for _, role := range []Role{RoleManager, RoleCourier, RoleClient} {
		parsed, err := ParseRole(string(role))
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	_, err := ParseRole("ADMIN")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestPrincipalRoles(t *testing.T) {
	p := Principal{Roles: []Role{RoleCourier, RoleClient}}
	assert.True(t, p.HasRole(RoleCourier))
	assert.True(t, p.HasRole(RoleClient))
	assert.False(t, p.HasRole(RoleManager))
	assert.False(t, p.IsManager())
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tokens := NewTokenManager("test-secret", time.Hour)
	svc := NewService(store, tokens)

	clientID := uuid.New()
	account, err := svc.Register(ctx, RegisterRequest{
		Username: "acme",
		Email:    "ops@acme.test",
		Password: "long-enough-password",
		Roles:    []string{"CLIENT"},
		ClientID: clientID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleClient}, account.Roles)
	require.NotNil(t, account.ClientID)
	assert.Equal(t, clientID, *account.ClientID)
	assert.NotEqual(t, "long-enough-password", account.PasswordHash)

	token, authed, err := svc.Authenticate(ctx, "ops@acme.test", "long-enough-password")
	require.NoError(t, err)
	assert.Equal(t, account.ID, authed.ID)

	principal, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, principal.AccountID)
	require.NotNil(t, principal.ClientID)
	assert.Equal(t, clientID, *principal.ClientID)

	_, _, err = svc.Authenticate(ctx, "ops@acme.test", "wrong-password")
	assert.Error(t, err)

	_, _, err = svc.Authenticate(ctx, "nobody@acme.test", "long-enough-password")
	assert.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), NewTokenManager("test-secret", time.Hour))

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"blank username", RegisterRequest{Email: "a@b.test", Password: "password123", Roles: []string{"MANAGER"}}},
		{"blank email", RegisterRequest{Username: "a", Password: "password123", Roles: []string{"MANAGER"}}},
		{"short password", RegisterRequest{Username: "a", Email: "a@b.test", Password: "short", Roles: []string{"MANAGER"}}},
		{"no roles", RegisterRequest{Username: "a", Email: "a@b.test", Password: "password123"}},
		{"unknown role", RegisterRequest{Username: "a", Email: "a@b.test", Password: "password123", Roles: []string{"ADMIN"}}},
		{"bad courier id", RegisterRequest{Username: "a", Email: "a@b.test", Password: "password123", Roles: []string{"COURIER"}, CourierID: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), NewTokenManager("test-secret", time.Hour))

	req := RegisterRequest{
		Username: "acme",
		Email:    "ops@acme.test",
		Password: "password123",
		Roles:    []string{"CLIENT"},
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.True(t, apperr.IsKind(err, apperr.KindDuplicate))
}
