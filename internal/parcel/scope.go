package parcel

import (
	"context"
	"time"

	"github.com/google/uuid"

	"parceltrack/internal/apperr"
	"parceltrack/internal/identity"
)

// Scoped wraps the lifecycle engine with role-aware authorization. List
// queries are silently narrowed to what the principal may see; single
// resource access fails with a forbidden error when the parcel belongs to
// someone else. Role precedence is MANAGER, then COURIER, then CLIENT.
type Scoped struct {
	svc Service
}

func NewScoped(svc Service) *Scoped {
	return &Scoped{svc: svc}
}

// scope narrows criteria to the principal's visibility. The second return
// is false when the principal can see nothing at all (a courier or client
// account with no linked record), which yields empty results rather than
// an error.
func scope(p identity.Principal, criteria Criteria) (Criteria, bool) {
	switch {
	case p.IsManager():
		return criteria, true
	case p.HasRole(identity.RoleCourier):
		if p.CourierID == nil {
			return Criteria{}, false
		}
		criteria.CourierID = p.CourierID
		return criteria, true
	case p.HasRole(identity.RoleClient):
		if p.ClientID == nil {
			return Criteria{}, false
		}
		criteria.SenderID = p.ClientID
		return criteria, true
	default:
		return Criteria{}, false
	}
}

// authorize checks single-resource access to an already-loaded parcel.
func authorize(p identity.Principal, parcel *Parcel) error {
	switch {
	case p.IsManager():
		return nil
	case p.HasRole(identity.RoleCourier):
		if p.CourierID != nil && parcel.CourierID != nil && *parcel.CourierID == *p.CourierID {
			return nil
		}
		return apperr.Forbidden("you do not have access to this parcel")
	case p.HasRole(identity.RoleClient):
		if p.ClientID != nil && parcel.SenderID == *p.ClientID {
			return nil
		}
		return apperr.Forbidden("you do not have access to this parcel")
	default:
		return apperr.Forbidden("access denied")
	}
}

// List returns the parcels matching criteria that the principal may see.
func (s *Scoped) List(ctx context.Context, p identity.Principal, criteria Criteria, page Page) ([]*Parcel, error) {
	scoped, visible := scope(p, criteria)
	if !visible {
		return []*Parcel{}, nil
	}
	return s.svc.List(ctx, scoped, page)
}

// Search is keyword search over description, destination city and party
// names, scoped exactly like List.
func (s *Scoped) Search(ctx context.Context, p identity.Principal, keyword string, page Page) ([]*Parcel, error) {
	return s.List(ctx, p, Criteria{Keyword: keyword}, page)
}

// ByPriority lists parcels of a single priority, scoped like List.
func (s *Scoped) ByPriority(ctx context.Context, p identity.Principal, priority Priority, page Page) ([]*Parcel, error) {
	if _, err := ParsePriority(string(priority)); err != nil {
		return nil, err
	}
	return s.List(ctx, p, Criteria{Priority: &priority}, page)
}

// Get returns a single parcel if the principal is authorized for it. An
// existing but foreign parcel yields a forbidden error, not a not-found.
func (s *Scoped) Get(ctx context.Context, p identity.Principal, id uuid.UUID) (*Parcel, error) {
	parcel, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, parcel); err != nil {
		return nil, err
	}
	return parcel, nil
}

// Create makes a new parcel. A client without the manager role may only
// create parcels it sends itself.
func (s *Scoped) Create(ctx context.Context, p identity.Principal, req CreateRequest) (*Parcel, error) {
	switch {
	case p.IsManager():
	case p.HasRole(identity.RoleClient):
		if p.ClientID == nil || req.SenderID != *p.ClientID {
			return nil, apperr.Forbidden("you can only create parcels for yourself")
		}
	default:
		return nil, apperr.Forbidden("access denied")
	}
	return s.svc.Create(ctx, req)
}

// Update applies a full partial-update. Manager-only.
func (s *Scoped) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req UpdateRequest) (*Parcel, error) {
	if !p.IsManager() {
		return nil, apperr.Forbidden("only managers can update parcels")
	}
	return s.svc.Update(ctx, id, req)
}

// UpdateStatus transitions a parcel's status under the single-resource
// rule: managers may update any parcel, couriers and clients only their
// own. When no actor is supplied the principal's username is recorded, so
// audit entries written on behalf of an authenticated caller always carry
// one.
func (s *Scoped) UpdateStatus(ctx context.Context, p identity.Principal, id uuid.UUID, req StatusRequest) (*Parcel, error) {
	if !p.IsManager() {
		parcel, err := s.svc.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := authorize(p, parcel); err != nil {
			return nil, err
		}
	}

	if req.ModifiedBy == "" {
		req.ModifiedBy = p.Username
	}
	return s.svc.UpdateStatus(ctx, id, req)
}

// Delete removes a parcel. Manager-only.
func (s *Scoped) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	if !p.IsManager() {
		return apperr.Forbidden("only managers can delete parcels")
	}
	return s.svc.Delete(ctx, id)
}

// History returns the audit trail of a parcel the principal may see.
func (s *Scoped) History(ctx context.Context, p identity.Principal, id uuid.UUID) ([]*HistoryEntry, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.svc.History(ctx, id)
}

// LineItems lists the contents of a parcel the principal may see.
func (s *Scoped) LineItems(ctx context.Context, p identity.Principal, parcelID uuid.UUID) ([]*LineItem, error) {
	if _, err := s.Get(ctx, p, parcelID); err != nil {
		return nil, err
	}
	return s.svc.LineItems(ctx, parcelID)
}

// AddLineItem attaches a product. Managers may edit any parcel's contents,
// clients only the contents of parcels they send. Couriers never edit
// contents.
func (s *Scoped) AddLineItem(ctx context.Context, p identity.Principal, parcelID uuid.UUID, req AddLineItemRequest) (*LineItem, error) {
	if err := s.authorizeContentEdit(ctx, p, parcelID); err != nil {
		return nil, err
	}
	return s.svc.AddLineItem(ctx, parcelID, req)
}

// RemoveLineItem detaches a product under the same authorization rule as
// AddLineItem.
func (s *Scoped) RemoveLineItem(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	item, err := s.svc.LineItem(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeContentEdit(ctx, p, item.ParcelID); err != nil {
		return err
	}
	return s.svc.RemoveLineItem(ctx, id)
}

func (s *Scoped) authorizeContentEdit(ctx context.Context, p identity.Principal, parcelID uuid.UUID) error {
	switch {
	case p.IsManager():
		return nil
	case p.HasRole(identity.RoleClient):
		parcel, err := s.svc.Get(ctx, parcelID)
		if err != nil {
			return err
		}
		if p.ClientID == nil || parcel.SenderID != *p.ClientID {
			return apperr.Forbidden("you can only edit the contents of your own parcels")
		}
		return nil
	default:
		return apperr.Forbidden("access denied")
	}
}

// Overdue returns the overdue set the principal may see: everything for a
// manager, their assigned parcels for a courier, nothing for anyone else.
func (s *Scoped) Overdue(ctx context.Context, p identity.Principal, now time.Time) ([]*Parcel, error) {
	switch {
	case p.IsManager():
		return s.svc.Overdue(ctx, now)
	case p.HasRole(identity.RoleCourier):
		if p.CourierID == nil {
			return []*Parcel{}, nil
		}
		all, err := s.svc.Overdue(ctx, now)
		if err != nil {
			return nil, err
		}
		mine := make([]*Parcel, 0, len(all))
		for _, parcel := range all {
			if parcel.CourierID != nil && *parcel.CourierID == *p.CourierID {
				mine = append(mine, parcel)
			}
		}
		return mine, nil
	default:
		return []*Parcel{}, nil
	}
}

// Statistics returns the count-by-status summary for the principal's
// scope. Unlinked courier/client accounts get an all-zero summary.
func (s *Scoped) Statistics(ctx context.Context, p identity.Principal) (*Statistics, error) {
	switch {
	case p.IsManager():
		return s.svc.Statistics(ctx)
	case p.HasRole(identity.RoleCourier):
		if p.CourierID == nil {
			return &Statistics{}, nil
		}
		return s.svc.StatisticsForCourier(ctx, *p.CourierID)
	case p.HasRole(identity.RoleClient):
		if p.ClientID == nil {
			return &Statistics{}, nil
		}
		return s.svc.StatisticsForClient(ctx, *p.ClientID)
	default:
		return &Statistics{}, nil
	}
}

// StatisticsForCourier returns another courier's summary. Manager-only.
func (s *Scoped) StatisticsForCourier(ctx context.Context, p identity.Principal, courierID uuid.UUID) (*Statistics, error) {
	if !p.IsManager() {
		return nil, apperr.Forbidden("only managers can view courier statistics")
	}
	return s.svc.StatisticsForCourier(ctx, courierID)
}
