package booking

import (
	"context"

	"vehiclerental/internal/app/dto"
	"vehiclerental/internal/app/handlers/support"
	"vehiclerental/internal/app/queries"
	"vehiclerental/internal/app/uow"
	domainbooking "vehiclerental/internal/domain/booking"
)

const getBookingKey = "booking.get"

type GetBookingQuery struct {
	ID int64
}

func (q GetBookingQuery) Key() string { return getBookingKey }

func (q GetBookingQuery) Validate() error {
	if q.ID <= 0 {
		return domainbooking.Invalid("id", "must be a positive integer")
	}
	return nil
}

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*dto.Booking, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.ID))
	if err != nil {
		return nil, err
	}
	return dto.MapBooking(b), nil
}

var _ queries.Handler[GetBookingQuery, *dto.Booking] = (*GetBookingHandler)(nil)
