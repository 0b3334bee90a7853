package venuestore

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout        = "2006-01-02"
	secondsPerMinute  = 60
	secondsPerHour    = 60 * secondsPerMinute
	secondsPerDay     = 24 * secondsPerHour
	timeOfDayParts    = 2
	timeOfDayMaxParts = 3
)

// Date is a calendar date without time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, validationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}

	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()

	return Date{Year: y, Month: m, Day: d}
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// TimeOfDay is a wall-clock time as seconds since midnight. 24:00:00 is valid as an interval end.
type TimeOfDay int

// ParseTimeOfDay parses HH:MM or HH:MM:SS. The only accepted value with hour 24 is 24:00(:00).
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	trimmed := strings.TrimSpace(raw)
	parts := strings.Split(trimmed, ":")

	if len(parts) < timeOfDayParts || len(parts) > timeOfDayMaxParts {
		return 0, validationError(fmt.Sprintf("invalid time %q, expected HH:MM or HH:MM:SS", raw))
	}

	values := make([]int, timeOfDayMaxParts)
	for i, part := range parts {
		if len(part) != 2 || !isDigit(part[0]) || !isDigit(part[1]) {
			return 0, validationError(fmt.Sprintf("invalid time %q, expected two digits per component", raw))
		}

		values[i] = int(part[0]-'0')*10 + int(part[1]-'0')
	}

	hour, minute, second := values[0], values[1], values[2]
	if minute > 59 || second > 59 || hour > 24 || (hour == 24 && (minute > 0 || second > 0)) {
		return 0, validationError(fmt.Sprintf("time %q out of range", raw))
	}

	return TimeOfDay(hour*secondsPerHour + minute*secondsPerMinute + second), nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// MustTimeOfDay is ParseTimeOfDay for constants, it panics on invalid input.
func MustTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}

	return t
}

// String renders the time as HH:MM:SS.
func (t TimeOfDay) String() string {
	s := int(t)

	return fmt.Sprintf("%02d:%02d:%02d", s/secondsPerHour, (s%secondsPerHour)/secondsPerMinute, s%secondsPerMinute)
}

// Valid reports whether the value lies within [00:00:00, 24:00:00].
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= secondsPerDay
}
