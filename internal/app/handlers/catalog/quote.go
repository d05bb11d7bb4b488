package catalog

import (
	"context"
	"errors"
	"fmt"

	"vehiclerental/internal/app/dto"
	"vehiclerental/internal/app/handlers/support"
	"vehiclerental/internal/app/queries"
	"vehiclerental/internal/app/uow"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	domainpricing "vehiclerental/internal/domain/pricing"
	"vehiclerental/internal/domain/shared/daterange"
)

const quoteKey = "catalog.quote"

// QuoteQuery prices a vehicle for a date range without booking it.
type QuoteQuery struct {
	VehicleID int64
	StartDate string
	EndDate   string
}

func (q QuoteQuery) Key() string { return quoteKey }

func (q QuoteQuery) Validate() error {
	_, err := q.rangeOf()
	if err != nil {
		return err
	}
	if q.VehicleID <= 0 {
		return domainbooking.Invalid(domainbooking.FieldVehicleID, "is required")
	}
	return nil
}

func (q QuoteQuery) rangeOf() (daterange.DateRange, error) {
	r, err := daterange.Parse(q.StartDate, q.EndDate)
	if err != nil {
		return daterange.DateRange{}, domainbooking.Invalid("range", err.Error())
	}
	if err := r.Bookable(); err != nil {
		return daterange.DateRange{}, domainbooking.Invalid(domainbooking.FieldEndDate, "must be after the start date")
	}
	return r, nil
}

type QuoteHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.Quote, error) {
	r, err := q.rangeOf()
	if err != nil {
		return dto.Quote{}, err
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	v, err := unit.Catalog().VehicleByID(ctx, domaincatalog.VehicleID(q.VehicleID))
	if errors.Is(err, domaincatalog.ErrVehicleNotFound) {
		return dto.Quote{}, domainbooking.Invalid(domainbooking.FieldVehicleID, "unknown vehicle")
	}
	if err != nil {
		return dto.Quote{}, err
	}
	quote := domainpricing.Quote(*v, r)
	if err := quote.Validate(); err != nil {
		return dto.Quote{}, fmt.Errorf("quote vehicle %d: %w", q.VehicleID, err)
	}
	return dto.MapQuote(quote), nil
}

var _ queries.Handler[QuoteQuery, dto.Quote] = (*QuoteHandler)(nil)
