package identity

import "context"

// RegisterRequest provisions a new account. Couriers and clients are
// registered with a link to their courier/sender record.
type RegisterRequest struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Roles     []string `json:"roles"`
	CourierID string   `json:"courier_id,omitempty"`
	ClientID  string   `json:"client_id,omitempty"`
}

// Service defines the interface for the identity service.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Account, error)
	Authenticate(ctx context.Context, email, password string) (string, *Account, error)
}
