package booking

import (
	"strconv"
	"time"

	"vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
)

type Created struct {
	BookingID BookingID           `json:"booking_id"`
	VehicleID catalog.VehicleID   `json:"vehicle_id"`
	Customer  Customer            `json:"customer"`
	Range     daterange.DateRange `json:"range"`
	At        time.Time           `json:"at"`
}

func (e Created) EventName() string     { return "booking.created" }
func (e Created) AggregateID() string   { return strconv.FormatInt(int64(e.BookingID), 10) }
func (e Created) OccurredAt() time.Time { return e.At }

// OverbookingPrevented is emitted when an attempt lost to an existing booking.
type OverbookingPrevented struct {
	VehicleID   catalog.VehicleID   `json:"vehicle_id"`
	Requested   daterange.DateRange `json:"requested"`
	Conflicting daterange.DateRange `json:"conflicting"`
	At          time.Time           `json:"at"`
}

func (e OverbookingPrevented) EventName() string { return "booking.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string {
	return "vehicle-" + strconv.FormatInt(int64(e.VehicleID), 10)
}
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
