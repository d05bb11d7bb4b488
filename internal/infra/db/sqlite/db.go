package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens the database file at path, creating its directory.
// Write transactions take the database lock at BEGIN (_txlock=immediate),
// so check-then-insert never interleaves with another writer.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vehicle_types (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		wheels INTEGER NOT NULL CHECK (wheels IN (2, 4))
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		type_id INTEGER NOT NULL REFERENCES vehicle_types(id),
		price_per_day INTEGER NOT NULL CHECK (price_per_day >= 0),
		currency TEXT NOT NULL,
		is_available INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		vehicle_id INTEGER NOT NULL REFERENCES vehicles(id),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		CHECK (start_date < end_date)
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_vehicle_start_idx ON bookings (vehicle_id, start_date)`,
	`CREATE TRIGGER IF NOT EXISTS bookings_no_overlap BEFORE INSERT ON bookings
	BEGIN
		SELECT RAISE(ABORT, 'booking_overlap')
		WHERE EXISTS (
			SELECT 1 FROM bookings
			WHERE vehicle_id = NEW.vehicle_id
			  AND start_date <= NEW.end_date
			  AND NEW.start_date <= end_date
		);
	END`,
}

// Migrate creates the tables and the overlap trigger when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}
