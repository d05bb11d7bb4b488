package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
)

const bookingColumns = `id, first_name, last_name, vehicle_id, start_date, end_date, created_at`

type bookingRepository struct {
	q querier
}

func (r bookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, int64(id))
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainbooking.ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

func (r bookingRepository) ListByVehicle(ctx context.Context, vehicleID domaincatalog.VehicleID) ([]*domainbooking.Booking, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE vehicle_id = ? ORDER BY start_date, id`, int64(vehicleID))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	var out []*domainbooking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, translate(rows.Err())
}

func (r bookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) (domainbooking.BookingID, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO bookings (first_name, last_name, vehicle_id, start_date, end_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.Customer.FirstName, b.Customer.LastName, int64(b.VehicleID),
		daterange.FormatDay(b.Range.Start), daterange.FormatDay(b.Range.End),
		b.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return domainbooking.BookingID(id), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (*domainbooking.Booking, error) {
	var (
		id, vehicleID              int64
		first, last, start, end, c string
	)
	if err := s.Scan(&id, &first, &last, &vehicleID, &start, &end, &c); err != nil {
		return nil, err
	}
	dr, err := daterange.Parse(start, end)
	if err != nil {
		return nil, fmt.Errorf("sqlite: booking %d: %w", id, err)
	}
	created, err := time.Parse(time.RFC3339Nano, c)
	if err != nil {
		return nil, fmt.Errorf("sqlite: booking %d created_at: %w", id, err)
	}
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(id),
		Customer:  domainbooking.Customer{FirstName: first, LastName: last},
		VehicleID: domaincatalog.VehicleID(vehicleID),
		Range:     dr,
		CreatedAt: created.UTC(),
	}, nil
}

var _ domainbooking.Repository = bookingRepository{}
