// Package parcel implements the parcel lifecycle: status transitions with
// their audit trail, line-item management, overdue detection, role-scoped
// access and per-status statistics.
package parcel

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"parceltrack/internal/apperr"
)

// Status is a parcel's lifecycle state. Any status may be assigned from any
// other status; the engine tracks transitions but does not enforce forward
// progress. Reaching COLLECTED or DELIVERED stamps the matching timestamp
// once.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusCollected Status = "COLLECTED"
	StatusInStock   Status = "IN_STOCK"
	StatusInTransit Status = "IN_TRANSIT"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
	StatusReturned  Status = "RETURNED"
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{
	StatusCreated,
	StatusCollected,
	StatusInStock,
	StatusInTransit,
	StatusDelivered,
	StatusCancelled,
	StatusReturned,
}

// overdueExcluded are the statuses that take a parcel out of the overdue
// set regardless of its deadline.
var overdueExcluded = []Status{StatusDelivered, StatusCancelled, StatusReturned}

// ParseStatus validates a status name from a request or storage.
func ParseStatus(s string) (Status, error) {
	for _, status := range AllStatuses {
		if Status(s) == status {
			return status, nil
		}
	}
	return "", apperr.Invalid("unknown status: %q", s)
}

// ContentsModifiable reports whether line items may be added or removed
// while the parcel is in this status.
func (s Status) ContentsModifiable() bool {
	return s == StatusCreated || s == StatusInStock
}

// Priority is a parcel's urgency level.
type Priority string

const (
	PriorityNormal     Priority = "NORMAL"
	PriorityUrgent     Priority = "URGENT"
	PriorityVeryUrgent Priority = "VERY_URGENT"
)

// ParsePriority validates a priority name from a request or storage.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityNormal, PriorityUrgent, PriorityVeryUrgent:
		return Priority(s), nil
	default:
		return "", apperr.Invalid("unknown priority: %q", s)
	}
}

// Parcel is a shipment tracked through the delivery lifecycle. Relations
// are foreign-key ids; related records are fetched through the reference
// data store when needed.
type Parcel struct {
	ID              uuid.UUID  `json:"id"`
	Description     string     `json:"description"`
	Weight          float64    `json:"weight"`
	Status          Status     `json:"status"`
	Priority        Priority   `json:"priority"`
	SenderID        uuid.UUID  `json:"sender_id"`
	RecipientID     uuid.UUID  `json:"recipient_id"`
	CourierID       *uuid.UUID `json:"courier_id,omitempty"`
	ZoneID          *uuid.UUID `json:"zone_id,omitempty"`
	DestinationCity string     `json:"destination_city"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	CollectedAt     *time.Time `json:"collected_at,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of the parcel.
func (p *Parcel) Clone() *Parcel {
	copied := *p
	copied.CourierID = clonePtr(p.CourierID)
	copied.ZoneID = clonePtr(p.ZoneID)
	copied.Deadline = clonePtr(p.Deadline)
	copied.CollectedAt = clonePtr(p.CollectedAt)
	copied.DeliveredAt = clonePtr(p.DeliveredAt)
	return &copied
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

// Overdue reports whether the parcel's deadline has passed while it is
// still undelivered and not cancelled or returned.
func (p *Parcel) Overdue(now time.Time) bool {
	if p.Deadline == nil || !p.Deadline.Before(now) {
		return false
	}
	for _, excluded := range overdueExcluded {
		if p.Status == excluded {
			return false
		}
	}
	return true
}

// HistoryEntry is an immutable audit record of a status assignment. One is
// written for the initial CREATED status and one per status change; it is
// never mutated afterwards.
type HistoryEntry struct {
	ID         uuid.UUID `json:"id"`
	ParcelID   uuid.UUID `json:"parcel_id"`
	Status     Status    `json:"status"`
	ChangedAt  time.Time `json:"changed_at"`
	Comment    string    `json:"comment,omitempty"`
	ModifiedBy string    `json:"modified_by,omitempty"`
}

// LineItem is a priced quantity of a product attached to a parcel.
type LineItem struct {
	ID        uuid.UUID `json:"id"`
	ParcelID  uuid.UUID `json:"parcel_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	AddedAt   time.Time `json:"added_at"`
}

// Statistics is the fixed-shape count-by-status summary.
type Statistics struct {
	Total     int64 `json:"total"`
	Created   int64 `json:"created"`
	Collected int64 `json:"collected"`
	InStock   int64 `json:"in_stock"`
	InTransit int64 `json:"in_transit"`
	Delivered int64 `json:"delivered"`
	Cancelled int64 `json:"cancelled"`
	Returned  int64 `json:"returned"`
}

// count adds n parcels in the given status to the summary.
func (s *Statistics) count(status Status, n int64) {
	s.Total += n
	switch status {
	case StatusCreated:
		s.Created += n
	case StatusCollected:
		s.Collected += n
	case StatusInStock:
		s.InStock += n
	case StatusInTransit:
		s.InTransit += n
	case StatusDelivered:
		s.Delivered += n
	case StatusCancelled:
		s.Cancelled += n
	case StatusReturned:
		s.Returned += n
	}
}

const (
	maxDescriptionLen = 500
	maxCityLen        = 100
	maxCommentLen     = 500
	maxActorLen       = 100
)

func validateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return apperr.Invalid("description is required")
	}
	if len(description) > maxDescriptionLen {
		return apperr.Invalid("description must be at most %d characters", maxDescriptionLen)
	}
	return nil
}

func validateWeight(weight float64) error {
	if weight <= 0 {
		return apperr.Invalid("weight must be greater than 0")
	}
	return nil
}

func validateCity(city string) error {
	if strings.TrimSpace(city) == "" {
		return apperr.Invalid("destination city is required")
	}
	if len(city) > maxCityLen {
		return apperr.Invalid("destination city must be at most %d characters", maxCityLen)
	}
	return nil
}
