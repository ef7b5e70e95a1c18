package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"parceltrack/internal/apperr"
)

// postgresStore persists reference entities in PostgreSQL.
type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) exec(ctx context.Context, entity, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperr.Duplicate("a %s with these details already exists", entity)
		}
		return fmt.Errorf("failed to insert %s: %w", entity, err)
	}
	return nil
}

func (s *postgresStore) CreateClient(ctx context.Context, client *Client) error {
	return s.exec(ctx, "client", `
		INSERT INTO clients (id, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
	`, client.ID, client.Name, client.Email, client.Phone, client.Address)
}

func (s *postgresStore) ClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	client := &Client{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, address, created_at
		FROM clients
		WHERE id = $1
	`, id).Scan(&client.ID, &client.Name, &client.Email, &client.Phone, &client.Address, &client.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "client", id)
	}
	return client, nil
}

func (s *postgresStore) Clients(ctx context.Context) ([]*Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, address, created_at
		FROM clients
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		client := &Client{}
		if err := rows.Scan(&client.ID, &client.Name, &client.Email, &client.Phone, &client.Address, &client.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (s *postgresStore) CreateRecipient(ctx context.Context, recipient *Recipient) error {
	return s.exec(ctx, "recipient", `
		INSERT INTO recipients (id, name, phone, address, city)
		VALUES ($1, $2, $3, $4, $5)
	`, recipient.ID, recipient.Name, recipient.Phone, recipient.Address, recipient.City)
}

func (s *postgresStore) RecipientByID(ctx context.Context, id uuid.UUID) (*Recipient, error) {
	recipient := &Recipient{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, address, city, created_at
		FROM recipients
		WHERE id = $1
	`, id).Scan(&recipient.ID, &recipient.Name, &recipient.Phone, &recipient.Address, &recipient.City, &recipient.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "recipient", id)
	}
	return recipient, nil
}

func (s *postgresStore) Recipients(ctx context.Context) ([]*Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, address, city, created_at
		FROM recipients
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var recipients []*Recipient
	for rows.Next() {
		recipient := &Recipient{}
		if err := rows.Scan(&recipient.ID, &recipient.Name, &recipient.Phone, &recipient.Address, &recipient.City, &recipient.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, recipient)
	}
	return recipients, rows.Err()
}

func (s *postgresStore) CreateCourier(ctx context.Context, courier *Courier) error {
	return s.exec(ctx, "courier", `
		INSERT INTO couriers (id, name, email, phone, zone_id, available)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, courier.ID, courier.Name, courier.Email, courier.Phone, courier.ZoneID, courier.Available)
}

func (s *postgresStore) CourierByID(ctx context.Context, id uuid.UUID) (*Courier, error) {
	courier := &Courier{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, zone_id, available, created_at
		FROM couriers
		WHERE id = $1
	`, id).Scan(&courier.ID, &courier.Name, &courier.Email, &courier.Phone, &courier.ZoneID, &courier.Available, &courier.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "courier", id)
	}
	return courier, nil
}

func (s *postgresStore) Couriers(ctx context.Context) ([]*Courier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, zone_id, available, created_at
		FROM couriers
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list couriers: %w", err)
	}
	defer rows.Close()

	var couriers []*Courier
	for rows.Next() {
		courier := &Courier{}
		if err := rows.Scan(&courier.ID, &courier.Name, &courier.Email, &courier.Phone, &courier.ZoneID, &courier.Available, &courier.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan courier: %w", err)
		}
		couriers = append(couriers, courier)
	}
	return couriers, rows.Err()
}

func (s *postgresStore) CreateZone(ctx context.Context, zone *Zone) error {
	return s.exec(ctx, "zone", `
		INSERT INTO zones (id, name, description)
		VALUES ($1, $2, $3)
	`, zone.ID, zone.Name, zone.Description)
}

func (s *postgresStore) ZoneByID(ctx context.Context, id uuid.UUID) (*Zone, error) {
	zone := &Zone{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at
		FROM zones
		WHERE id = $1
	`, id).Scan(&zone.ID, &zone.Name, &zone.Description, &zone.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "zone", id)
	}
	return zone, nil
}

func (s *postgresStore) Zones(ctx context.Context) ([]*Zone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at
		FROM zones
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	defer rows.Close()

	var zones []*Zone
	for rows.Next() {
		zone := &Zone{}
		if err := rows.Scan(&zone.ID, &zone.Name, &zone.Description, &zone.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, zone)
	}
	return zones, rows.Err()
}

func (s *postgresStore) CreateProduct(ctx context.Context, product *Product) error {
	return s.exec(ctx, "product", `
		INSERT INTO products (id, name, description, price)
		VALUES ($1, $2, $3, $4)
	`, product.ID, product.Name, product.Description, product.Price)
}

func (s *postgresStore) ProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	product := &Product{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "product", id)
	}
	return product, nil
}

func (s *postgresStore) Products(ctx context.Context) ([]*Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, price, created_at
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		product := &Product{}
		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func notFoundOr(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s with id %s not found", entity, id)
	}
	return fmt.Errorf("failed to query %s: %w", entity, err)
}
