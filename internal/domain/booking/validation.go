package booking

import (
	"strings"
	"time"
	"unicode/utf8"

	"vehiclerental/internal/domain/shared/daterange"
)

// MinNameLength is the minimum number of characters in each customer name.
const MinNameLength = 2

// Field names used in ValidationError, matching the wire body.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldVehicleID = "vehicleId"
	FieldStartDate = "startDate"
	FieldEndDate   = "endDate"
)

// ValidateName checks one customer name after trimming.
func ValidateName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "is required"
	}
	if utf8.RuneCountInString(name) < MinNameLength {
		return "must be at least 2 characters"
	}
	return ""
}

// ValidateRange checks that r is a bookable range starting no earlier than today.
// It returns the offending field and a message, or empty strings.
func ValidateRange(r daterange.DateRange, now time.Time) (string, string) {
	switch {
	case r.Start.IsZero():
		return FieldStartDate, "is required"
	case r.End.IsZero():
		return FieldEndDate, "is required"
	}
	if err := r.Bookable(); err != nil {
		return FieldEndDate, "must be after the start date"
	}
	if r.Start.Before(daterange.Day(now)) {
		return FieldStartDate, "must not be in the past"
	}
	return "", ""
}

// Validate re-checks every field of the request. now is the service clock.
func (r Request) Validate(now time.Time) error {
	verr := &ValidationError{}
	if msg := ValidateName(r.Customer.FirstName); msg != "" {
		verr.Add(FieldFirstName, msg)
	}
	if msg := ValidateName(r.Customer.LastName); msg != "" {
		verr.Add(FieldLastName, msg)
	}
	if r.VehicleID <= 0 {
		verr.Add(FieldVehicleID, "is required")
	}
	if field, msg := ValidateRange(r.Range, now); field != "" {
		verr.Add(field, msg)
	}
	if verr.empty() {
		return nil
	}
	return verr
}
