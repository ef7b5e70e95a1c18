package parcel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Criteria narrows a parcel query. Nil/empty fields are not applied. City
// and Keyword match as case-insensitive substrings; Keyword also matches
// sender and recipient names.
type Criteria struct {
	Status    *Status
	Priority  *Priority
	ZoneID    *uuid.UUID
	City      string
	CourierID *uuid.UUID
	SenderID  *uuid.UUID
	Keyword   string
}

// Page is an offset/limit window over a list query.
type Page struct {
	Offset int
	Limit  int
}

// DefaultPageSize bounds list queries when the caller does not ask for a
// specific window.
const DefaultPageSize = 20

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Repository is the persistence boundary for parcels, their audit history
// and their line items.
//
// Create and Update commit the parcel row and the given history entry in a
// single transaction: a status change must never be persisted without its
// audit record. Update accepts a nil entry for mutations that do not touch
// the status.
type Repository interface {
	Create(ctx context.Context, p *Parcel, entry *HistoryEntry) error
	Get(ctx context.Context, id uuid.UUID) (*Parcel, error)
	List(ctx context.Context, criteria Criteria, page Page) ([]*Parcel, error)
	Update(ctx context.Context, p *Parcel, entry *HistoryEntry) error
	Delete(ctx context.Context, id uuid.UUID) error

	// History returns the parcel's audit entries, newest first.
	History(ctx context.Context, parcelID uuid.UUID) ([]*HistoryEntry, error)

	AddLineItem(ctx context.Context, item *LineItem) error
	LineItem(ctx context.Context, id uuid.UUID) (*LineItem, error)
	LineItems(ctx context.Context, parcelID uuid.UUID) ([]*LineItem, error)
	DeleteLineItem(ctx context.Context, id uuid.UUID) error

	// Overdue returns parcels with a deadline strictly before now that are
	// not DELIVERED, CANCELLED or RETURNED.
	Overdue(ctx context.Context, now time.Time) ([]*Parcel, error)

	// CountByStatus groups the parcels matching criteria by status. Counts
	// are exact at query time.
	CountByStatus(ctx context.Context, criteria Criteria) (*Statistics, error)
}
