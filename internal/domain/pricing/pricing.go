package pricing

import (
	"errors"

	"vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
	"vehiclerental/internal/domain/shared/money"
)

var ErrCurrencyUnset = errors.New("pricing: currency must be defined")

// Quotation is the price of renting one vehicle for a range of days.
type Quotation struct {
	Days   int
	PerDay money.Money
	Total  money.Money
}

func (q Quotation) IsZero() bool {
	return q.Days == 0
}

func (q Quotation) Validate() error {
	if q.PerDay.Currency == "" {
		return ErrCurrencyUnset
	}
	if q.Days <= 0 {
		return errors.New("pricing: days must be positive")
	}
	return nil
}

// Quote charges the per-day rate for every day of the range, both ends included.
// An unset or unbookable range yields the zero Quotation.
func Quote(v catalog.Vehicle, r daterange.DateRange) Quotation {
	if r.IsZero() || r.Bookable() != nil {
		return Quotation{}
	}
	days := r.DurationDays()
	return Quotation{
		Days:   days,
		PerDay: v.PricePerDay,
		Total:  v.PricePerDay.Multiply(int64(days)),
	}
}
