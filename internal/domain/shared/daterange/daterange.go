package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire and storage format for calendar days.
const DayLayout = "2006-01-02"

var (
	ErrMissingDate  = errors.New("daterange: start and end dates are required")
	ErrInvalidRange = errors.New("daterange: end date must not be before start date")
	ErrTooShort     = errors.New("daterange: end date must be after start date")
)

// DateRange is a closed interval of whole calendar days [Start, End].
// Both bounds are normalised to UTC midnight.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to its calendar day, keeping the date as seen in t's location.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Must is New for fixtures and tests.
func Must(start, end time.Time) DateRange {
	dr, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return dr
}

// Parse builds a range from two YYYY-MM-DD strings.
func Parse(start, end string) (DateRange, error) {
	s, err := ParseDay(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDay(end)
	if err != nil {
		return DateRange{}, err
	}
	return New(s, e)
}

func ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrMissingDate
	}
	t, err := time.Parse(DayLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("daterange: invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DayLayout)
}

func (dr DateRange) IsZero() bool {
	return dr.Start.IsZero() && dr.End.IsZero()
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrMissingDate
	}
	if dr.End.Before(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Bookable reports whether the range covers at least one night.
func (dr DateRange) Bookable() error {
	if err := dr.Validate(); err != nil {
		return err
	}
	if !dr.Start.Before(dr.End) {
		return ErrTooShort
	}
	return nil
}

// Nights is the number of day boundaries crossed by the range.
func (dr DateRange) Nights() int {
	if dr.Validate() != nil {
		return 0
	}
	return int(dr.End.Sub(dr.Start).Hours() / 24)
}

// DurationDays counts both boundary days.
func (dr DateRange) DurationDays() int {
	if dr.Validate() != nil {
		return 0
	}
	return dr.Nights() + 1
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return Closed.Overlaps(dr, other)
}

func (dr DateRange) Contains(day time.Time) bool {
	day = Day(day)
	return !day.Before(dr.Start) && !day.After(dr.End)
}

// Intersection returns the shared days of two closed ranges.
func (dr DateRange) Intersection(other DateRange) (DateRange, bool) {
	if !dr.Overlaps(other) {
		return DateRange{}, false
	}
	start := dr.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := dr.End
	if other.End.Before(end) {
		end = other.End
	}
	return DateRange{Start: start, End: end}, true
}

func (dr DateRange) String() string {
	return FormatDay(dr.Start) + ".." + FormatDay(dr.End)
}
