package booking

import (
	"context"
	"errors"

	"vehiclerental/internal/app/commands"
	"vehiclerental/internal/app/dto"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
)

const createBookingKey = "booking.create"

// CreateBookingCommand carries the POST /bookings body as received.
type CreateBookingCommand struct {
	FirstName       string
	LastName        string
	VehicleID       int64
	StartDate       string
	EndDate         string
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.Booking{} }

// Validate rejects missing or malformed fields. Business rules are checked by the service.
func (c CreateBookingCommand) Validate() error {
	_, err := c.Request()
	return err
}

// Request converts the command into a domain request.
func (c CreateBookingCommand) Request() (domainbooking.Request, error) {
	verr := &domainbooking.ValidationError{}
	if msg := domainbooking.ValidateName(c.FirstName); msg != "" {
		verr.Add(domainbooking.FieldFirstName, msg)
	}
	if msg := domainbooking.ValidateName(c.LastName); msg != "" {
		verr.Add(domainbooking.FieldLastName, msg)
	}
	if c.VehicleID <= 0 {
		verr.Add(domainbooking.FieldVehicleID, "is required")
	}
	start, err := daterange.ParseDay(c.StartDate)
	if err != nil {
		verr.Add(domainbooking.FieldStartDate, dateMessage(err))
	}
	end, err := daterange.ParseDay(c.EndDate)
	if err != nil {
		verr.Add(domainbooking.FieldEndDate, dateMessage(err))
	}
	if len(verr.Fields) > 0 {
		return domainbooking.Request{}, verr
	}
	return domainbooking.Request{
		VehicleID: domaincatalog.VehicleID(c.VehicleID),
		Range:     daterange.DateRange{Start: start, End: end},
		Customer:  domainbooking.Customer{FirstName: c.FirstName, LastName: c.LastName},
	}, nil
}

func dateMessage(err error) string {
	if errors.Is(err, daterange.ErrMissingDate) {
		return "is required"
	}
	return "must be a date in YYYY-MM-DD format"
}

// Attempter is the booking conflict service.
type Attempter interface {
	Attempt(ctx context.Context, req domainbooking.Request) (*domainbooking.Booking, error)
}

type CreateBookingHandler struct {
	Service Attempter
}

var ErrServiceRequired = errors.New("booking: conflict service required")

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	if h.Service == nil {
		return nil, ErrServiceRequired
	}
	req, err := cmd.Request()
	if err != nil {
		return nil, err
	}
	created, err := h.Service.Attempt(ctx, req)
	if err != nil {
		return nil, err
	}
	return dto.MapBooking(created), nil
}

var _ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
