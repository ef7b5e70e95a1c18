package refdata

import (
	"context"

	"github.com/google/uuid"
)

// Store is the reference-data boundary. Lookups return the entity or a
// not-found error; they never traverse into related records.
type Store interface {
	CreateClient(ctx context.Context, client *Client) error
	ClientByID(ctx context.Context, id uuid.UUID) (*Client, error)
	Clients(ctx context.Context) ([]*Client, error)

	CreateRecipient(ctx context.Context, recipient *Recipient) error
	RecipientByID(ctx context.Context, id uuid.UUID) (*Recipient, error)
	Recipients(ctx context.Context) ([]*Recipient, error)

	CreateCourier(ctx context.Context, courier *Courier) error
	CourierByID(ctx context.Context, id uuid.UUID) (*Courier, error)
	Couriers(ctx context.Context) ([]*Courier, error)

	CreateZone(ctx context.Context, zone *Zone) error
	ZoneByID(ctx context.Context, id uuid.UUID) (*Zone, error)
	Zones(ctx context.Context) ([]*Zone, error)

	CreateProduct(ctx context.Context, product *Product) error
	ProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Products(ctx context.Context) ([]*Product, error)
}
