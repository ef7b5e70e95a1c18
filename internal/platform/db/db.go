// Package db opens the Postgres pool and owns the schema.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres, tunes the pool and verifies the connection.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify postgres connection: %w", err)
	}
	return db, nil
}

// InitSchema creates the tables if they do not exist yet.
func InitSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			salt TEXT NOT NULL DEFAULT '',
			roles TEXT[] NOT NULL,
			courier_id UUID,
			client_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS clients (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS recipients (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS zones (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS couriers (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL DEFAULT '',
			zone_id UUID REFERENCES zones (id),
			available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS parcels (
			id UUID PRIMARY KEY,
			description TEXT NOT NULL,
			weight DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			sender_id UUID NOT NULL REFERENCES clients (id),
			recipient_id UUID NOT NULL REFERENCES recipients (id),
			courier_id UUID REFERENCES couriers (id),
			zone_id UUID REFERENCES zones (id),
			destination_city TEXT NOT NULL,
			deadline TIMESTAMPTZ,
			collected_at TIMESTAMPTZ,
			delivered_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS delivery_history (
			id UUID PRIMARY KEY,
			parcel_id UUID NOT NULL REFERENCES parcels (id) ON DELETE CASCADE,
			status TEXT NOT NULL,
			changed_at TIMESTAMPTZ NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			modified_by TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS parcel_items (
			id UUID PRIMARY KEY,
			parcel_id UUID NOT NULL REFERENCES parcels (id) ON DELETE CASCADE,
			product_id UUID NOT NULL REFERENCES products (id),
			quantity INTEGER NOT NULL,
			unit_price DOUBLE PRECISION NOT NULL,
			added_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_status ON parcels (status)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_courier ON parcels (courier_id)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_sender ON parcels (sender_id)`,
		`CREATE INDEX IF NOT EXISTS idx_history_parcel ON delivery_history (parcel_id)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
