package timezone

import (
	"fmt"
	"time"
)

// CalendarDate is a local calendar date. It is a plain comparable value so a
// set of active dates can be a map key set.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ToLocalDate projects an absolute instant to a calendar date in the given
// timezone. Pure and deterministic.
func ToLocalDate(t time.Time, tz *time.Location) CalendarDate {
	if tz == nil {
		tz = UTC
	}
	local := t.In(tz)
	return CalendarDate{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

// AddDays returns the date n days later (or earlier for negative n),
// normalized across month and year boundaries.
func (d CalendarDate) AddDays(n int) CalendarDate {
	t := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC)
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Before reports whether d is earlier than other.
func (d CalendarDate) Before(other CalendarDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is later than other.
func (d CalendarDate) After(other CalendarDate) bool {
	return other.Before(d)
}

// String formats the date as YYYY-MM-DD.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
