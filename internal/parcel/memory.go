package parcel

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"parceltrack/internal/apperr"
	"parceltrack/internal/refdata"
)

// memoryRepository is an in-memory Repository for tests and local runs.
// When given a reference-data store it resolves sender/recipient names for
// keyword search, mirroring the SQL join.
type memoryRepository struct {
	mu      sync.RWMutex
	refs    refdata.Store
	parcels map[uuid.UUID]*Parcel
	history map[uuid.UUID][]*HistoryEntry
	items   map[uuid.UUID]*LineItem
	seq     int
	order   map[uuid.UUID]int
}

func NewMemoryRepository(refs refdata.Store) Repository {
	return &memoryRepository{
		refs:    refs,
		parcels: make(map[uuid.UUID]*Parcel),
		history: make(map[uuid.UUID][]*HistoryEntry),
		items:   make(map[uuid.UUID]*LineItem),
		order:   make(map[uuid.UUID]int),
	}
}

func (r *memoryRepository) Create(_ context.Context, p *Parcel, entry *HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.order[p.ID] = r.seq
	r.parcels[p.ID] = p.Clone()
	r.appendHistory(entry)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id uuid.UUID) (*Parcel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parcel, ok := r.parcels[id]
	if !ok {
		return nil, apperr.NotFound("parcel with id %s not found", id)
	}
	return parcel.Clone(), nil
}

func (r *memoryRepository) List(ctx context.Context, criteria Criteria, page Page) ([]*Parcel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Parcel
	for _, parcel := range r.parcels {
		ok, err := r.matches(ctx, parcel, criteria)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, parcel.Clone())
		}
	}

	// Newest first, matching the SQL ordering; creation sequence breaks
	// equal-timestamp ties deterministically.
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return r.order[a.ID] > r.order[b.ID]
	})

	if page.Offset >= len(matched) {
		return []*Parcel{}, nil
	}
	matched = matched[page.Offset:]
	if page.Limit > 0 && page.Limit < len(matched) {
		matched = matched[:page.Limit]
	}
	return matched, nil
}

func (r *memoryRepository) Update(_ context.Context, p *Parcel, entry *HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.parcels[p.ID]; !ok {
		return apperr.NotFound("parcel with id %s not found", p.ID)
	}
	r.parcels[p.ID] = p.Clone()
	if entry != nil {
		r.appendHistory(entry)
	}
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.parcels[id]; !ok {
		return apperr.NotFound("parcel with id %s not found", id)
	}
	delete(r.parcels, id)
	delete(r.history, id)
	for itemID, item := range r.items {
		if item.ParcelID == id {
			delete(r.items, itemID)
		}
	}
	return nil
}

func (r *memoryRepository) History(_ context.Context, parcelID uuid.UUID) ([]*HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.history[parcelID]
	out := make([]*HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		copied := *entry
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChangedAt.After(out[j].ChangedAt)
	})
	return out, nil
}

func (r *memoryRepository) AddLineItem(_ context.Context, item *LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *memoryRepository) LineItem(_ context.Context, id uuid.UUID) (*LineItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, apperr.NotFound("line item with id %s not found", id)
	}
	copied := *item
	return &copied, nil
}

func (r *memoryRepository) LineItems(_ context.Context, parcelID uuid.UUID) ([]*LineItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*LineItem
	for _, item := range r.items {
		if item.ParcelID == parcelID {
			copied := *item
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].AddedAt.Before(items[j].AddedAt)
	})
	return items, nil
}

func (r *memoryRepository) DeleteLineItem(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return apperr.NotFound("line item with id %s not found", id)
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepository) Overdue(_ context.Context, now time.Time) ([]*Parcel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var overdue []*Parcel
	for _, parcel := range r.parcels {
		if parcel.Overdue(now) {
			overdue = append(overdue, parcel.Clone())
		}
	}
	sort.Slice(overdue, func(i, j int) bool {
		return overdue[i].Deadline.Before(*overdue[j].Deadline)
	})
	return overdue, nil
}

func (r *memoryRepository) CountByStatus(ctx context.Context, criteria Criteria) (*Statistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Statistics{}
	for _, parcel := range r.parcels {
		ok, err := r.matches(ctx, parcel, criteria)
		if err != nil {
			return nil, err
		}
		if ok {
			stats.count(parcel.Status, 1)
		}
	}
	return stats, nil
}

func (r *memoryRepository) appendHistory(entry *HistoryEntry) {
	copied := *entry
	r.history[entry.ParcelID] = append(r.history[entry.ParcelID], &copied)
}

func (r *memoryRepository) matches(ctx context.Context, p *Parcel, criteria Criteria) (bool, error) {
	if criteria.Status != nil && p.Status != *criteria.Status {
		return false, nil
	}
	if criteria.Priority != nil && p.Priority != *criteria.Priority {
		return false, nil
	}
	if criteria.ZoneID != nil && (p.ZoneID == nil || *p.ZoneID != *criteria.ZoneID) {
		return false, nil
	}
	if criteria.City != "" && !containsFold(p.DestinationCity, criteria.City) {
		return false, nil
	}
	if criteria.CourierID != nil && (p.CourierID == nil || *p.CourierID != *criteria.CourierID) {
		return false, nil
	}
	if criteria.SenderID != nil && p.SenderID != *criteria.SenderID {
		return false, nil
	}
	if criteria.Keyword != "" {
		if containsFold(p.Description, criteria.Keyword) || containsFold(p.DestinationCity, criteria.Keyword) {
			return true, nil
		}
		if r.refs == nil {
			return false, nil
		}
		if sender, err := r.refs.ClientByID(ctx, p.SenderID); err == nil && containsFold(sender.Name, criteria.Keyword) {
			return true, nil
		}
		if recipient, err := r.refs.RecipientByID(ctx, p.RecipientID); err == nil && containsFold(recipient.Name, criteria.Keyword) {
			return true, nil
		}
		return false, nil
	}
	return true, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
