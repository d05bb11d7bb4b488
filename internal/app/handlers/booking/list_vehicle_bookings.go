package booking

import (
	"context"

	"vehiclerental/internal/app/dto"
	"vehiclerental/internal/app/handlers/support"
	"vehiclerental/internal/app/queries"
	"vehiclerental/internal/app/uow"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
)

const listVehicleBookingsKey = "booking.list_by_vehicle"

// ListVehicleBookingsQuery returns a vehicle's calendar of confirmed bookings.
type ListVehicleBookingsQuery struct {
	VehicleID int64
}

func (q ListVehicleBookingsQuery) Key() string { return listVehicleBookingsKey }

func (q ListVehicleBookingsQuery) Validate() error {
	if q.VehicleID <= 0 {
		return domainbooking.Invalid(domainbooking.FieldVehicleID, "is required")
	}
	return nil
}

type ListVehicleBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListVehicleBookingsHandler) Handle(ctx context.Context, q ListVehicleBookingsQuery) ([]dto.Booking, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Bookings().ListByVehicle(ctx, domaincatalog.VehicleID(q.VehicleID))
	if err != nil {
		return nil, err
	}
	return dto.MapBookings(items), nil
}

var _ queries.Handler[ListVehicleBookingsQuery, []dto.Booking] = (*ListVehicleBookingsHandler)(nil)
