package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Claims is the JWT payload. The courier/client links ride along in the
// token so that resolving a request to a Principal needs no store lookup.
type Claims struct {
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
	CourierID string   `json:"courier_id,omitempty"`
	ClientID  string   `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HMAC-signed bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the account.
func (m *TokenManager) Issue(account *Account) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: account.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	for _, r := range account.Roles {
		claims.Roles = append(claims.Roles, string(r))
	}
	if account.CourierID != nil {
		claims.CourierID = account.CourierID.String()
	}
	if account.ClientID != nil {
		claims.ClientID = account.ClientID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a bearer token and resolves it to a Principal.
func (m *TokenManager) Verify(raw string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return Principal{}, fmt.Errorf("invalid token")
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid token subject: %w", err)
	}

	p := Principal{
		AccountID: accountID,
		Username:  claims.Username,
	}
	for _, r := range claims.Roles {
		role, err := ParseRole(r)
		if err != nil {
			return Principal{}, err
		}
		p.Roles = append(p.Roles, role)
	}
	if claims.CourierID != "" {
		id, err := uuid.Parse(claims.CourierID)
		if err != nil {
			return Principal{}, fmt.Errorf("invalid courier claim: %w", err)
		}
		p.CourierID = &id
	}
	if claims.ClientID != "" {
		id, err := uuid.Parse(claims.ClientID)
		if err != nil {
			return Principal{}, fmt.Errorf("invalid client claim: %w", err)
		}
		p.ClientID = &id
	}
	return p, nil
}
