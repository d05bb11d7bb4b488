package wizard

import (
	"time"

	domainbooking "vehiclerental/internal/domain/booking"
)

type validator func(d Draft, now time.Time) map[Field]string

var validators = map[Step]validator{
	StepDetails:    validateDetails,
	StepWheelClass: validateWheelClass,
	StepCategory:   validateCategory,
	StepModel:      validateModel,
	StepDates:      validateDates,
}

// Validate runs the validator of the draft's current step. Review and Success have none.
func Validate(d Draft, now time.Time) map[Field]string {
	v, ok := validators[d.Step]
	if !ok {
		return nil
	}
	return v(d, now)
}

func validateDetails(d Draft, _ time.Time) map[Field]string {
	errs := map[Field]string{}
	if msg := domainbooking.ValidateName(d.FirstName); msg != "" {
		errs[FieldFirstName] = "First name " + msg
	}
	if msg := domainbooking.ValidateName(d.LastName); msg != "" {
		errs[FieldLastName] = "Last name " + msg
	}
	return errs
}

func validateWheelClass(d Draft, _ time.Time) map[Field]string {
	if !d.WheelClass.Valid() {
		return map[Field]string{FieldWheelClass: "Select 2 or 4 wheels"}
	}
	return nil
}

func validateCategory(d Draft, _ time.Time) map[Field]string {
	switch {
	case d.VehicleType == nil:
		return map[Field]string{FieldVehicleType: "Select a vehicle type"}
	case d.VehicleType.Wheels != d.WheelClass:
		return map[Field]string{FieldVehicleType: "Selected type does not match the number of wheels"}
	}
	return nil
}

func validateModel(d Draft, _ time.Time) map[Field]string {
	switch {
	case d.Vehicle == nil:
		return map[Field]string{FieldVehicle: "Select a vehicle"}
	case d.VehicleType != nil && d.Vehicle.TypeID != d.VehicleType.ID:
		return map[Field]string{FieldVehicle: "Selected vehicle does not belong to the chosen type"}
	}
	return nil
}

func validateDates(d Draft, now time.Time) map[Field]string {
	if d.Range == nil {
		return map[Field]string{FieldStartDate: "Select a start date", FieldEndDate: "Select an end date"}
	}
	field, msg := domainbooking.ValidateRange(*d.Range, now)
	if field == "" {
		return nil
	}
	label := "Start date "
	if field == domainbooking.FieldEndDate {
		label = "End date "
	}
	return map[Field]string{Field(field): label + msg}
}
