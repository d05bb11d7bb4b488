package dto

import (
	"time"

	domainbooking "vehiclerental/internal/domain/booking"
	"vehiclerental/internal/domain/shared/daterange"
)

type Booking struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	VehicleID int64     `json:"vehicleId"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	CreatedAt time.Time `json:"createdAt"`
}

func MapBooking(b *domainbooking.Booking) *Booking {
	if b == nil {
		return nil
	}
	return &Booking{
		ID:        int64(b.ID),
		FirstName: b.Customer.FirstName,
		LastName:  b.Customer.LastName,
		VehicleID: int64(b.VehicleID),
		StartDate: daterange.FormatDay(b.Range.Start),
		EndDate:   daterange.FormatDay(b.Range.End),
		CreatedAt: b.CreatedAt,
	}
}

// MapBookings renders a vehicle's bookings in store order.
func MapBookings(items []*domainbooking.Booking) []Booking {
	out := make([]Booking, 0, len(items))
	for _, b := range items {
		out = append(out, *MapBooking(b))
	}
	return out
}
