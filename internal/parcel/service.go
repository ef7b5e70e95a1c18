package parcel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CreateRequest carries the data for a new parcel.
type CreateRequest struct {
	Description     string     `json:"description"`
	Weight          float64    `json:"weight"`
	Priority        Priority   `json:"priority,omitempty"`
	DestinationCity string     `json:"destination_city"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	SenderID        uuid.UUID  `json:"sender_id"`
	RecipientID     uuid.UUID  `json:"recipient_id"`
	ZoneID          *uuid.UUID `json:"zone_id,omitempty"`
}

// UpdateRequest carries a partial update: nil fields are left unchanged.
type UpdateRequest struct {
	Description     *string    `json:"description,omitempty"`
	Weight          *float64   `json:"weight,omitempty"`
	Priority        *Priority  `json:"priority,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	DestinationCity *string    `json:"destination_city,omitempty"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	CourierID       *uuid.UUID `json:"courier_id,omitempty"`
	ZoneID          *uuid.UUID `json:"zone_id,omitempty"`
}

// StatusRequest carries a status transition with its audit fields.
type StatusRequest struct {
	Status     Status `json:"status"`
	Comment    string `json:"comment,omitempty"`
	ModifiedBy string `json:"modified_by,omitempty"`
}

// AddLineItemRequest attaches a priced product quantity to a parcel.
type AddLineItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

// Service is the parcel lifecycle engine. It knows nothing about
// principals; role scoping is layered on top by Scoped.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Parcel, error)
	Get(ctx context.Context, id uuid.UUID) (*Parcel, error)
	List(ctx context.Context, criteria Criteria, page Page) ([]*Parcel, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Parcel, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req StatusRequest) (*Parcel, error)
	Delete(ctx context.Context, id uuid.UUID) error
	History(ctx context.Context, parcelID uuid.UUID) ([]*HistoryEntry, error)

	LineItems(ctx context.Context, parcelID uuid.UUID) ([]*LineItem, error)
	LineItem(ctx context.Context, id uuid.UUID) (*LineItem, error)
	AddLineItem(ctx context.Context, parcelID uuid.UUID, req AddLineItemRequest) (*LineItem, error)
	RemoveLineItem(ctx context.Context, id uuid.UUID) error

	Overdue(ctx context.Context, now time.Time) ([]*Parcel, error)

	Statistics(ctx context.Context) (*Statistics, error)
	StatisticsForCourier(ctx context.Context, courierID uuid.UUID) (*Statistics, error)
	StatisticsForClient(ctx context.Context, clientID uuid.UUID) (*Statistics, error)
}
