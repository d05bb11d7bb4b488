package booking

import (
	"context"
	"strings"
	"time"

	"vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
	"vehiclerental/internal/domain/shared/events"
)

type BookingID int64

type Customer struct {
	FirstName string
	LastName  string
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Booking is a confirmed reservation of one vehicle. It is immutable once persisted.
type Booking struct {
	ID        BookingID
	Customer  Customer
	VehicleID catalog.VehicleID
	Range     daterange.DateRange
	CreatedAt time.Time
	events.EventRecorder
}

// Repository is the persistence boundary for bookings. Insert assigns the id.
// Implementations that enforce the no-overlap invariant themselves return ErrOverlap;
// implementations that detect a competing transaction return ErrSerialization.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	ListByVehicle(ctx context.Context, vehicleID catalog.VehicleID) ([]*Booking, error)
	Insert(ctx context.Context, b *Booking) (BookingID, error)
}

// Request carries everything a customer submits to reserve a vehicle.
type Request struct {
	VehicleID catalog.VehicleID
	Range     daterange.DateRange
	Customer  Customer
	// IdempotencyKey names one submission; retries of it reuse the key.
	IdempotencyKey string
}

// NewBooking builds an unsaved booking from a validated request.
func NewBooking(req Request, now time.Time) (*Booking, error) {
	if err := req.Validate(now); err != nil {
		return nil, err
	}
	return &Booking{
		Customer: Customer{
			FirstName: strings.TrimSpace(req.Customer.FirstName),
			LastName:  strings.TrimSpace(req.Customer.LastName),
		},
		VehicleID: req.VehicleID,
		Range:     req.Range,
		CreatedAt: now.UTC(),
	}, nil
}

// Persisted stamps the store-assigned id and records the creation event.
func (b *Booking) Persisted(id BookingID) {
	b.ID = id
	b.Record(Created{
		BookingID: b.ID,
		VehicleID: b.VehicleID,
		Customer:  b.Customer,
		Range:     b.Range,
		At:        b.CreatedAt,
	})
}

// Clone copies the booking without its pending events.
func (b *Booking) Clone() *Booking {
	return &Booking{
		ID:        b.ID,
		Customer:  b.Customer,
		VehicleID: b.VehicleID,
		Range:     b.Range,
		CreatedAt: b.CreatedAt,
	}
}
