package parcel

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"parceltrack/internal/apperr"
	"parceltrack/internal/refdata"
)

// service implements the Service interface.
type service struct {
	repo Repository
	refs refdata.Store
	now  func() time.Time
}

// NewService creates the parcel lifecycle engine.
func NewService(repo Repository, refs refdata.Store) Service {
	return &service{
		repo: repo,
		refs: refs,
		now:  time.Now,
	}
}

// Create validates the request, resolves its references and persists the
// parcel together with its initial CREATED history entry.
func (s *service) Create(ctx context.Context, req CreateRequest) (*Parcel, error) {
	if err := validateDescription(req.Description); err != nil {
		return nil, err
	}
	if err := validateWeight(req.Weight); err != nil {
		return nil, err
	}
	if err := validateCity(req.DestinationCity); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	} else if _, err := ParsePriority(string(priority)); err != nil {
		return nil, err
	}

	if _, err := s.refs.ClientByID(ctx, req.SenderID); err != nil {
		return nil, err
	}
	if _, err := s.refs.RecipientByID(ctx, req.RecipientID); err != nil {
		return nil, err
	}
	if req.ZoneID != nil {
		if _, err := s.refs.ZoneByID(ctx, *req.ZoneID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	parcel := &Parcel{
		ID:              uuid.New(),
		Description:     req.Description,
		Weight:          req.Weight,
		Status:          StatusCreated,
		Priority:        priority,
		SenderID:        req.SenderID,
		RecipientID:     req.RecipientID,
		ZoneID:          req.ZoneID,
		DestinationCity: req.DestinationCity,
		Deadline:        req.Deadline,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	entry := s.historyEntry(parcel.ID, StatusCreated, "parcel created", "")
	if err := s.repo.Create(ctx, parcel, entry); err != nil {
		return nil, fmt.Errorf("failed to create parcel: %w", err)
	}

	log.Printf("parcel created id=%s sender=%s", parcel.ID, parcel.SenderID)
	return parcel, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Parcel, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, criteria Criteria, page Page) ([]*Parcel, error) {
	return s.repo.List(ctx, criteria, page.normalize())
}

// Update applies a partial update. Fields left nil in the request keep
// their current value. A status change goes through the same audit and
// timestamp rules as UpdateStatus, with a generic comment and no actor.
func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Parcel, error) {
	parcel, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return nil, err
		}
		parcel.Description = *req.Description
	}
	if req.Weight != nil {
		if err := validateWeight(*req.Weight); err != nil {
			return nil, err
		}
		parcel.Weight = *req.Weight
	}
	if req.DestinationCity != nil {
		if err := validateCity(*req.DestinationCity); err != nil {
			return nil, err
		}
		parcel.DestinationCity = *req.DestinationCity
	}
	if req.Priority != nil {
		if _, err := ParsePriority(string(*req.Priority)); err != nil {
			return nil, err
		}
		parcel.Priority = *req.Priority
	}
	if req.Deadline != nil {
		parcel.Deadline = req.Deadline
	}
	if req.CourierID != nil {
		if _, err := s.refs.CourierByID(ctx, *req.CourierID); err != nil {
			return nil, err
		}
		parcel.CourierID = req.CourierID
	}
	if req.ZoneID != nil {
		if _, err := s.refs.ZoneByID(ctx, *req.ZoneID); err != nil {
			return nil, err
		}
		parcel.ZoneID = req.ZoneID
	}

	var entry *HistoryEntry
	if req.Status != nil && *req.Status != parcel.Status {
		if _, err := ParseStatus(string(*req.Status)); err != nil {
			return nil, err
		}
		parcel.Status = *req.Status
		s.applyStatusTimestamps(parcel)
		entry = s.historyEntry(parcel.ID, parcel.Status, "status updated", "")
	}

	parcel.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, parcel, entry); err != nil {
		return nil, fmt.Errorf("failed to update parcel: %w", err)
	}
	return parcel, nil
}

// UpdateStatus transitions the parcel. Setting the current status again is
// a no-op that leaves the history untouched, so retried requests do not
// pollute the audit trail.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, req StatusRequest) (*Parcel, error) {
	parcel, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := ParseStatus(string(req.Status)); err != nil {
		return nil, err
	}
	if len(req.Comment) > maxCommentLen {
		return nil, apperr.Invalid("comment must be at most %d characters", maxCommentLen)
	}
	if len(req.ModifiedBy) > maxActorLen {
		return nil, apperr.Invalid("modified_by must be at most %d characters", maxActorLen)
	}

	if parcel.Status == req.Status {
		log.Printf("parcel %s already in status %s", id, req.Status)
		return parcel, nil
	}

	parcel.Status = req.Status
	s.applyStatusTimestamps(parcel)
	parcel.UpdatedAt = s.now()

	entry := s.historyEntry(parcel.ID, req.Status, req.Comment, req.ModifiedBy)
	if err := s.repo.Update(ctx, parcel, entry); err != nil {
		return nil, fmt.Errorf("failed to update parcel status: %w", err)
	}

	log.Printf("parcel %s status changed to %s", id, req.Status)
	return parcel, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) History(ctx context.Context, parcelID uuid.UUID) ([]*HistoryEntry, error) {
	return s.repo.History(ctx, parcelID)
}

func (s *service) LineItems(ctx context.Context, parcelID uuid.UUID) ([]*LineItem, error) {
	return s.repo.LineItems(ctx, parcelID)
}

func (s *service) LineItem(ctx context.Context, id uuid.UUID) (*LineItem, error) {
	return s.repo.LineItem(ctx, id)
}

// AddLineItem attaches a product to the parcel. Contents are only
// modifiable while the parcel is CREATED or IN_STOCK.
func (s *service) AddLineItem(ctx context.Context, parcelID uuid.UUID, req AddLineItemRequest) (*LineItem, error) {
	parcel, err := s.repo.Get(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	if !parcel.Status.ContentsModifiable() {
		return nil, apperr.InvalidState("cannot add products to a parcel in status %s", parcel.Status)
	}

	if _, err := s.refs.ProductByID(ctx, req.ProductID); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, apperr.Invalid("quantity must be at least 1")
	}
	if req.UnitPrice <= 0 {
		return nil, apperr.Invalid("unit price must be greater than 0")
	}

	item := &LineItem{
		ID:        uuid.New(),
		ParcelID:  parcelID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		AddedAt:   s.now(),
	}
	if err := s.repo.AddLineItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add line item: %w", err)
	}
	return item, nil
}

// RemoveLineItem deletes a line item, subject to the same modifiable-state
// rule as AddLineItem.
func (s *service) RemoveLineItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.repo.LineItem(ctx, id)
	if err != nil {
		return err
	}
	parcel, err := s.repo.Get(ctx, item.ParcelID)
	if err != nil {
		return err
	}
	if !parcel.Status.ContentsModifiable() {
		return apperr.InvalidState("cannot remove products from a parcel in status %s", parcel.Status)
	}
	return s.repo.DeleteLineItem(ctx, id)
}

func (s *service) Overdue(ctx context.Context, now time.Time) ([]*Parcel, error) {
	return s.repo.Overdue(ctx, now)
}

func (s *service) Statistics(ctx context.Context) (*Statistics, error) {
	return s.repo.CountByStatus(ctx, Criteria{})
}

func (s *service) StatisticsForCourier(ctx context.Context, courierID uuid.UUID) (*Statistics, error) {
	return s.repo.CountByStatus(ctx, Criteria{CourierID: &courierID})
}

func (s *service) StatisticsForClient(ctx context.Context, clientID uuid.UUID) (*Statistics, error) {
	return s.repo.CountByStatus(ctx, Criteria{SenderID: &clientID})
}

// applyStatusTimestamps stamps collection/delivery times the first time the
// matching status is reached. Once set they are never overwritten.
func (s *service) applyStatusTimestamps(p *Parcel) {
	switch p.Status {
	case StatusCollected:
		if p.CollectedAt == nil {
			now := s.now()
			p.CollectedAt = &now
		}
	case StatusDelivered:
		if p.DeliveredAt == nil {
			now := s.now()
			p.DeliveredAt = &now
		}
	}
}

func (s *service) historyEntry(parcelID uuid.UUID, status Status, comment, actor string) *HistoryEntry {
	return &HistoryEntry{
		ID:         uuid.New(),
		ParcelID:   parcelID,
		Status:     status,
		ChangedAt:  s.now(),
		Comment:    comment,
		ModifiedBy: actor,
	}
}
