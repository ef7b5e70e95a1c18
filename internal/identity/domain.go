package identity

import (
	"time"

	"github.com/google/uuid"

	"parceltrack/internal/apperr"
)

// Role is the closed set of role names the scoping rules dispatch on.
// Keeping it an enum (rather than free-form authority strings) means a new
// role forces a review of every switch that consumes it.
type Role string

const (
	RoleManager Role = "MANAGER"
	RoleCourier Role = "COURIER"
	RoleClient  Role = "CLIENT"
)

// ParseRole validates a role name coming from storage or a request.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleManager, RoleCourier, RoleClient:
		return Role(s), nil
	default:
		return "", apperr.Invalid("unknown role: %q", s)
	}
}

// Principal is the resolved identity of an authenticated caller: its role
// set plus the courier or sender-client record it is linked to, if any.
// Every scoped operation takes a Principal explicitly; nothing reads it
// from ambient state.
type Principal struct {
	AccountID uuid.UUID
	Username  string
	Roles     []Role
	CourierID *uuid.UUID
	ClientID  *uuid.UUID
}

// HasRole reports whether the principal holds the given role.
func (p Principal) HasRole(r Role) bool {
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// IsManager reports whether the principal holds the MANAGER role, which
// bypasses ownership filtering everywhere.
func (p Principal) IsManager() bool { return p.HasRole(RoleManager) }

// Account is a login identity. An account may be linked to at most one
// courier record and at most one sender-client record; those links are what
// the scoping layer keys on.
type Account struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Salt         string     `json:"-"`
	Roles        []Role     `json:"roles"`
	CourierID    *uuid.UUID `json:"courier_id,omitempty"`
	ClientID     *uuid.UUID `json:"client_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Principal builds the principal view of an account.
func (a *Account) Principal() Principal {
	return Principal{
		AccountID: a.ID,
		Username:  a.Username,
		Roles:     append([]Role(nil), a.Roles...),
		CourierID: a.CourierID,
		ClientID:  a.ClientID,
	}
}
