package daterange

// Policy decides whether two ranges compete for the same days.
type Policy int

const (
	// Closed treats both bounds as occupied: ranges sharing a boundary day overlap.
	Closed Policy = iota
	// HalfOpen treats the end day as free, so [a, b] and [b, c] do not overlap.
	HalfOpen
)

func (p Policy) Overlaps(a, b DateRange) bool {
	if a.Validate() != nil || b.Validate() != nil {
		return false
	}
	switch p {
	case HalfOpen:
		return a.Start.Before(b.End) && b.Start.Before(a.End)
	default:
		return !a.Start.After(b.End) && !b.Start.After(a.End)
	}
}

func (p Policy) String() string {
	if p == HalfOpen {
		return "half-open"
	}
	return "closed"
}

// Overlaps applies the booking policy (Closed) to a and b.
func Overlaps(a, b DateRange) bool {
	return Closed.Overlaps(a, b)
}
