// Package refdata holds the reference entities a parcel points at: the
// sending client, the recipient, the assigned courier, the delivery zone
// and the products of its line items. Relations are foreign-key ids only;
// anyone needing the related record fetches it through the Store.
package refdata

import (
	"time"

	"github.com/google/uuid"
)

// Client is a sender: the party a parcel originates from.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recipient is the destination party of a parcel.
type Recipient struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Courier is a delivery agent. A courier may work a single zone.
type Courier struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	ZoneID    *uuid.UUID `json:"zone_id,omitempty"`
	Available bool       `json:"available"`
	CreatedAt time.Time  `json:"created_at"`
}

// Zone is a geographic delivery area.
type Zone struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product is a sellable item referenced by parcel line items.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}
