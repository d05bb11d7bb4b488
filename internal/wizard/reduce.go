package wizard

import (
	"errors"
	"fmt"
	"time"

	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
)

// ErrInvalidTransition marks an event the current step does not accept.
// It signals a bug in the caller, not bad user input.
var ErrInvalidTransition = errors.New("wizard: invalid transition")

// GenericSubmitFailure is shown on Review when a submission fails for any reason but a conflict.
const GenericSubmitFailure = "We could not complete your booking. Please try again."

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// UpdateField writes one draft field. Value types: string for names,
// catalog.WheelClass, catalog.VehicleType, catalog.Vehicle and
// daterange.DateRange. A nil Value clears the field.
type UpdateField struct {
	Field Field
	Value any
}

// Advance validates the current step and moves to the next one.
type Advance struct{}

// Retreat moves one step back.
type Retreat struct{}

// Edit jumps back to an earlier step, e.g. from Review to change the dates.
type Edit struct {
	Step Step
}

// Reset discards the draft.
type Reset struct{}

type SubmitSucceeded struct {
	Booking *domainbooking.Booking
}

type SubmitFailed struct {
	Err error
}

func (UpdateField) isEvent()     {}
func (Advance) isEvent()         {}
func (Retreat) isEvent()         {}
func (Edit) isEvent()            {}
func (Reset) isEvent()           {}
func (SubmitSucceeded) isEvent() {}
func (SubmitFailed) isEvent()    {}

// Env carries what transitions read from outside the draft.
type Env struct {
	Now time.Time
}

// Reduce applies ev to d and returns the next draft. d is never modified.
// On ErrInvalidTransition the returned draft equals d.
func Reduce(d Draft, ev Event, env Env) (Draft, error) {
	next := d.clone()
	switch e := ev.(type) {
	case UpdateField:
		if d.Step == StepSuccess {
			return d, invalid(ev, d.Step)
		}
		if err := applyField(&next, e); err != nil {
			return d, err
		}
		return next, nil

	case Advance:
		if d.Step >= StepReview {
			return d, invalid(ev, d.Step)
		}
		if errs := Validate(d, env.Now); len(errs) > 0 {
			next.Errors = errs
			return next, nil
		}
		next.Errors = nil
		next.Step = d.Step + 1
		return next, nil

	case Retreat:
		if d.Step == StepSuccess {
			return d, invalid(ev, d.Step)
		}
		next.Errors = nil
		if next.Step > StepDetails {
			next.Step--
		}
		return next, nil

	case Edit:
		if d.Step == StepSuccess || !e.Step.Valid() || e.Step > d.Step {
			return d, invalid(ev, d.Step)
		}
		next.Errors = nil
		next.Step = e.Step
		return next, nil

	case Reset:
		return Draft{}, nil

	case SubmitSucceeded:
		if d.Step != StepReview || e.Booking == nil {
			return d, invalid(ev, d.Step)
		}
		next.Errors = nil
		next.Booking = e.Booking.Clone()
		next.Step = StepSuccess
		return next, nil

	case SubmitFailed:
		if d.Step != StepReview {
			return d, invalid(ev, d.Step)
		}
		next.Errors = map[Field]string{FieldSubmit: SubmitMessage(e.Err)}
		return next, nil
	}
	return d, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
}

// SubmitMessage is the user-facing text for a failed submission.
func SubmitMessage(err error) string {
	var conflict *domainbooking.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Error() + ". Choose another vehicle or different dates."
	}
	return GenericSubmitFailure
}

// applyField writes the value and clears the selections that depend on it:
// a new wheel class clears type and vehicle, a new type clears the vehicle.
func applyField(d *Draft, e UpdateField) error {
	switch e.Field {
	case FieldFirstName, FieldLastName:
		s, ok := e.Value.(string)
		if !ok && e.Value != nil {
			return wrongType(e)
		}
		if e.Field == FieldFirstName {
			d.FirstName = s
		} else {
			d.LastName = s
		}
	case FieldWheelClass:
		w, ok := e.Value.(domaincatalog.WheelClass)
		if !ok && e.Value != nil {
			return wrongType(e)
		}
		d.WheelClass = w
		d.VehicleType = nil
		d.Vehicle = nil
	case FieldVehicleType:
		d.VehicleType = nil
		if e.Value != nil {
			t, ok := e.Value.(domaincatalog.VehicleType)
			if !ok {
				return wrongType(e)
			}
			d.VehicleType = &t
		}
		d.Vehicle = nil
	case FieldVehicle:
		d.Vehicle = nil
		if e.Value != nil {
			v, ok := e.Value.(domaincatalog.Vehicle)
			if !ok {
				return wrongType(e)
			}
			d.Vehicle = &v
		}
	case FieldRange:
		d.Range = nil
		if e.Value != nil {
			r, ok := e.Value.(daterange.DateRange)
			if !ok {
				return wrongType(e)
			}
			d.Range = &r
		}
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidTransition, e.Field)
	}
	return nil
}

func wrongType(e UpdateField) error {
	return fmt.Errorf("%w: field %q does not accept %T", ErrInvalidTransition, e.Field, e.Value)
}

func invalid(ev Event, step Step) error {
	return fmt.Errorf("%w: %T from %s", ErrInvalidTransition, ev, step)
}
