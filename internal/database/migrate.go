package database

import (
	"context"
	"database/sql"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id               UUID PRIMARY KEY,
		items            JSONB NOT NULL,
		subtotal         NUMERIC(12,2) NOT NULL,
		delivery_fee     NUMERIC(12,2) NOT NULL,
		tax              NUMERIC(12,2) NOT NULL,
		total            NUMERIC(12,2) NOT NULL,
		restaurant_id    TEXT NOT NULL,
		restaurant_name  TEXT NOT NULL,
		customer_id      TEXT NOT NULL,
		customer_name    TEXT NOT NULL,
		delivery_address TEXT NOT NULL,
		payment_method   TEXT NOT NULL,
		driver_id        TEXT,
		driver_name      TEXT,
		status           TEXT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_customer_idx ON orders (customer_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status, driver_id)`,
	`CREATE TABLE IF NOT EXISTS partners (
		id            UUID PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		name          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS otp_codes (
		phone      TEXT PRIMARY KEY,
		code       TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`ALTER TABLE otp_codes ADD COLUMN IF NOT EXISTS sent_at TIMESTAMPTZ NOT NULL DEFAULT now()`,
	`ALTER TABLE otp_codes ADD COLUMN IF NOT EXISTS attempts INT NOT NULL DEFAULT 0`,
	`CREATE TABLE IF NOT EXISTS storefronts (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		cuisine    TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		storefront_id TEXT NOT NULL REFERENCES storefronts (id) ON DELETE CASCADE,
		id            TEXT NOT NULL,
		name          TEXT NOT NULL,
		price         NUMERIC(12,2) NOT NULL,
		position      INT NOT NULL,
		PRIMARY KEY (storefront_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		customer_id TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL,
		phone       TEXT NOT NULL,
		city        TEXT NOT NULL,
		address     TEXT NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
