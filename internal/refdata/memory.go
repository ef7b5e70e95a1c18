package refdata

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"parceltrack/internal/apperr"
)

// memoryStore is an in-memory Store for tests and local runs.
type memoryStore struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]*Client
	recipients map[uuid.UUID]*Recipient
	couriers   map[uuid.UUID]*Courier
	zones      map[uuid.UUID]*Zone
	products   map[uuid.UUID]*Product
}

func NewMemoryStore() Store {
	return &memoryStore{
		clients:    make(map[uuid.UUID]*Client),
		recipients: make(map[uuid.UUID]*Recipient),
		couriers:   make(map[uuid.UUID]*Courier),
		zones:      make(map[uuid.UUID]*Zone),
		products:   make(map[uuid.UUID]*Product),
	}
}

func (s *memoryStore) CreateClient(_ context.Context, client *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.clients {
		if existing.Email == client.Email {
			return apperr.Duplicate("a client with these details already exists")
		}
	}
	client.CreatedAt = time.Now()
	copied := *client
	s.clients[client.ID] = &copied
	return nil
}

func (s *memoryStore) ClientByID(_ context.Context, id uuid.UUID) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[id]
	if !ok {
		return nil, apperr.NotFound("client with id %s not found", id)
	}
	copied := *client
	return &copied, nil
}

func (s *memoryStore) Clients(_ context.Context) ([]*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clients := make([]*Client, 0, len(s.clients))
	for _, client := range s.clients {
		copied := *client
		clients = append(clients, &copied)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
	return clients, nil
}

func (s *memoryStore) CreateRecipient(_ context.Context, recipient *Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recipient.CreatedAt = time.Now()
	copied := *recipient
	s.recipients[recipient.ID] = &copied
	return nil
}

func (s *memoryStore) RecipientByID(_ context.Context, id uuid.UUID) (*Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recipient, ok := s.recipients[id]
	if !ok {
		return nil, apperr.NotFound("recipient with id %s not found", id)
	}
	copied := *recipient
	return &copied, nil
}

func (s *memoryStore) Recipients(_ context.Context) ([]*Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recipients := make([]*Recipient, 0, len(s.recipients))
	for _, recipient := range s.recipients {
		copied := *recipient
		recipients = append(recipients, &copied)
	}
	sort.Slice(recipients, func(i, j int) bool { return recipients[i].Name < recipients[j].Name })
	return recipients, nil
}

func (s *memoryStore) CreateCourier(_ context.Context, courier *Courier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.couriers {
		if existing.Email == courier.Email {
			return apperr.Duplicate("a courier with these details already exists")
		}
	}
	courier.CreatedAt = time.Now()
	copied := *courier
	s.couriers[courier.ID] = &copied
	return nil
}

func (s *memoryStore) CourierByID(_ context.Context, id uuid.UUID) (*Courier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	courier, ok := s.couriers[id]
	if !ok {
		return nil, apperr.NotFound("courier with id %s not found", id)
	}
	copied := *courier
	return &copied, nil
}

func (s *memoryStore) Couriers(_ context.Context) ([]*Courier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	couriers := make([]*Courier, 0, len(s.couriers))
	for _, courier := range s.couriers {
		copied := *courier
		couriers = append(couriers, &copied)
	}
	sort.Slice(couriers, func(i, j int) bool { return couriers[i].Name < couriers[j].Name })
	return couriers, nil
}

func (s *memoryStore) CreateZone(_ context.Context, zone *Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	zone.CreatedAt = time.Now()
	copied := *zone
	s.zones[zone.ID] = &copied
	return nil
}

func (s *memoryStore) ZoneByID(_ context.Context, id uuid.UUID) (*Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zone, ok := s.zones[id]
	if !ok {
		return nil, apperr.NotFound("zone with id %s not found", id)
	}
	copied := *zone
	return &copied, nil
}

func (s *memoryStore) Zones(_ context.Context) ([]*Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zones := make([]*Zone, 0, len(s.zones))
	for _, zone := range s.zones {
		copied := *zone
		zones = append(zones, &copied)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Name < zones[j].Name })
	return zones, nil
}

func (s *memoryStore) CreateProduct(_ context.Context, product *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	product.CreatedAt = time.Now()
	copied := *product
	s.products[product.ID] = &copied
	return nil
}

func (s *memoryStore) ProductByID(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFound("product with id %s not found", id)
	}
	copied := *product
	return &copied, nil
}

func (s *memoryStore) Products(_ context.Context) ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := make([]*Product, 0, len(s.products))
	for _, product := range s.products {
		copied := *product
		products = append(products, &copied)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}
