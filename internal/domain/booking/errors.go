package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
)

var (
	ErrNotFound = errors.New("booking: not found")
	// ErrConflict matches every *ConflictError.
	ErrConflict = errors.New("booking: vehicle already booked for these dates")
	// ErrTransient matches every *TransientError.
	ErrTransient = errors.New("booking: temporary failure")
	// ErrOverlap is returned by repositories whose storage rejects an overlapping insert.
	ErrOverlap = errors.New("booking: overlapping booking rejected by store")
	// ErrSerialization is returned when a concurrent transaction won; the whole attempt may be retried.
	ErrSerialization = errors.New("booking: serialization failure")
	ErrValidation    = errors.New("booking: invalid request")
)

// ValidationError lists per-field problems with a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "booking: invalid request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add records a field problem, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// Invalid builds a single-field validation error.
func Invalid(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// ConflictError reports that the requested range overlaps a persisted booking.
type ConflictError struct {
	VehicleID        catalog.VehicleID
	ConflictingRange daterange.DateRange
	// Message overrides the generated text; set when the conflict arrives over the wire.
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.ConflictingRange.IsZero() {
		return fmt.Sprintf("vehicle %d is already booked for the selected dates", e.VehicleID)
	}
	return fmt.Sprintf("vehicle %d is already booked from %s to %s",
		e.VehicleID,
		daterange.FormatDay(e.ConflictingRange.Start),
		daterange.FormatDay(e.ConflictingRange.End))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// TransientError wraps storage or network failures. Retrying the same request is safe.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	if e.Err == nil {
		return "booking: " + e.Op + ": temporary failure"
	}
	return "booking: " + e.Op + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

func Transient(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}
