package wizard

import (
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	domainpricing "vehiclerental/internal/domain/pricing"
	"vehiclerental/internal/domain/shared/daterange"
)

// Field names a draft input and the key of its validation message.
type Field string

const (
	FieldFirstName   Field = domainbooking.FieldFirstName
	FieldLastName    Field = domainbooking.FieldLastName
	FieldWheelClass  Field = "wheelClass"
	FieldVehicleType Field = "vehicleTypeId"
	FieldVehicle     Field = domainbooking.FieldVehicleID
	FieldRange       Field = "range"
	FieldStartDate   Field = domainbooking.FieldStartDate
	FieldEndDate     Field = domainbooking.FieldEndDate
	// FieldSubmit holds the Review step's submission error.
	FieldSubmit Field = "submit"
)

// Draft is the in-progress booking. Transitions return a new Draft; the
// catalog snapshots carry wheel count and price so validation and the
// Review quote need no lookups.
type Draft struct {
	FirstName   string
	LastName    string
	WheelClass  domaincatalog.WheelClass
	VehicleType *domaincatalog.VehicleType
	Vehicle     *domaincatalog.Vehicle
	Range       *daterange.DateRange
	Step        Step
	Errors      map[Field]string
	// Booking is set once the submission succeeded.
	Booking *domainbooking.Booking
}

func (d Draft) VehicleTypeID() (domaincatalog.TypeID, bool) {
	if d.VehicleType == nil {
		return 0, false
	}
	return d.VehicleType.ID, true
}

func (d Draft) VehicleID() (domaincatalog.VehicleID, bool) {
	if d.Vehicle == nil {
		return 0, false
	}
	return d.Vehicle.ID, true
}

// Quote prices the selected vehicle for the selected range; zero until both are valid.
func (d Draft) Quote() domainpricing.Quotation {
	if d.Vehicle == nil || d.Range == nil {
		return domainpricing.Quotation{}
	}
	return domainpricing.Quote(*d.Vehicle, *d.Range)
}

// Request is the booking request the Review step submits.
func (d Draft) Request() domainbooking.Request {
	req := domainbooking.Request{
		Customer: domainbooking.Customer{FirstName: d.FirstName, LastName: d.LastName},
	}
	if d.Vehicle != nil {
		req.VehicleID = d.Vehicle.ID
	}
	if d.Range != nil {
		req.Range = *d.Range
	}
	return req
}

// HasErrors reports whether the last transition left validation messages.
func (d Draft) HasErrors() bool {
	return len(d.Errors) > 0
}

// clone deep-copies the draft so callers never share state with the machine.
func (d Draft) clone() Draft {
	out := d
	if d.VehicleType != nil {
		t := *d.VehicleType
		out.VehicleType = &t
	}
	if d.Vehicle != nil {
		v := *d.Vehicle
		out.Vehicle = &v
	}
	if d.Range != nil {
		r := *d.Range
		out.Range = &r
	}
	if d.Booking != nil {
		out.Booking = d.Booking.Clone()
	}
	if d.Errors != nil {
		out.Errors = make(map[Field]string, len(d.Errors))
		for k, v := range d.Errors {
			out.Errors[k] = v
		}
	}
	return out
}
