package venuestore

import "fmt"

// Interval is a half-open [Start, End) range within one day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewInterval returns an Interval, or ErrValidation unless Start < End.
func NewInterval(start, end TimeOfDay) (Interval, error) {
	if !start.Valid() || !end.Valid() {
		return Interval{}, validationError("interval bounds must lie within one day")
	}

	if start >= end {
		return Interval{}, validationError(fmt.Sprintf("start time %s must be before end time %s", start, end))
	}

	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether both intervals share at least one instant.
// Touching intervals such as 13:00-14:00 and 14:00-15:00 do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return !(i.End <= other.Start || other.End <= i.Start)
}

// String renders the interval as HH:MM:SS-HH:MM:SS.
func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// FirstOverlap returns the first existing interval that overlaps the candidate.
func FirstOverlap(existing []Interval, candidate Interval) (Interval, bool) {
	for _, e := range existing {
		if e.Overlaps(candidate) {
			return e, true
		}
	}

	return Interval{}, false
}
