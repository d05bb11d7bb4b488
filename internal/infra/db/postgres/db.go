package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`CREATE TABLE IF NOT EXISTS vehicle_types (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		wheels SMALLINT NOT NULL CHECK (wheels IN (2, 4))
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		type_id BIGINT NOT NULL REFERENCES vehicle_types(id),
		price_per_day BIGINT NOT NULL CHECK (price_per_day >= 0),
		currency CHAR(3) NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGSERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		vehicle_id BIGINT NOT NULL REFERENCES vehicles(id),
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (start_date < end_date),
		CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
			vehicle_id WITH =,
			daterange(start_date, end_date, '[]') WITH &&
		)
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_vehicle_start_idx ON bookings (vehicle_id, start_date)`,
}

// Migrate creates the tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}
