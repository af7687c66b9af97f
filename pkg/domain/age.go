package domain

import (
	"fmt"
	"time"

	dErrors "inro/pkg/domain-errors"
)

// MinimumAge is the age in years at which a subject passes the age gate.
const MinimumAge = 20

const dateLayout = "2006-01-02"

const (
	minYear = 1
	maxYear = 9999
)

// CalendarDate is a civil date: a year, month and day observed in a location.
// It carries no time of day and is never converted to an instant for age
// arithmetic. Construct it with NewCalendarDate, DateOf or ParseCalendarDate.
type CalendarDate struct {
	year  int
	month time.Month
	day   int
	loc   *time.Location
}

// NewCalendarDate validates and builds a civil date. Combinations that do not
// name a real calendar day (Feb 30, month 13, day 0) are rejected instead of
// being normalized the way time.Date would.
//
// Errors: returns CodeInvalidInput for impossible dates.
func NewCalendarDate(year int, month time.Month, day int, loc *time.Location) (CalendarDate, error) {
	if loc == nil {
		loc = time.UTC
	}
	if year < minYear || year > maxYear {
		return CalendarDate{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("year %d out of range", year))
	}
	if month < time.January || month > time.December {
		return CalendarDate{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("month %d out of range", month))
	}
	if day < 1 || day > daysIn(year, month) {
		return CalendarDate{}, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("%04d-%02d has no day %d", year, int(month), day))
	}
	return CalendarDate{year: year, month: month, day: day, loc: loc}, nil
}

// MustCalendarDate is NewCalendarDate for literals known to be valid.
func MustCalendarDate(year int, month time.Month, day int, loc *time.Location) CalendarDate {
	d, err := NewCalendarDate(year, month, day, loc)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the civil date of t in t's own location. Instants outside
// years 1 through 9999 clamp to the first or last day of that range, so the
// result is always a date NewCalendarDate would accept.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	switch {
	case y < minYear:
		y, m, d = minYear, time.January, 1
	case y > maxYear:
		y, m, d = maxYear, time.December, 31
	}
	return CalendarDate{year: y, month: m, day: d, loc: t.Location()}
}

// Today returns the civil date of the current instant observed in loc.
func Today(loc *time.Location) CalendarDate {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(time.Now().In(loc))
}

// ParseCalendarDate parses a YYYY-MM-DD string into a civil date in loc.
//
// Usage: call at trust boundaries for external input.
//
// Errors: returns CodeInvalidInput for malformed or impossible dates.
func ParseCalendarDate(s string, loc *time.Location) (CalendarDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return CalendarDate{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "date must be formatted as YYYY-MM-DD")
	}
	y, m, d := t.Date()
	return NewCalendarDate(y, m, d, loc)
}

func (d CalendarDate) Year() int         { return d.year }
func (d CalendarDate) Month() time.Month { return d.month }
func (d CalendarDate) Day() int          { return d.day }

// Location returns the location the date was observed in.
func (d CalendarDate) Location() *time.Location {
	if d.loc == nil {
		return time.UTC
	}
	return d.loc
}

// IsZero reports whether d is the zero value.
func (d CalendarDate) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// Time returns midnight of d in its location.
func (d CalendarDate) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, d.Location())
}

// String formats d as YYYY-MM-DD.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// Equal compares the civil components only; locations are ignored.
func (d CalendarDate) Equal(other CalendarDate) bool {
	return d.year == other.year && d.month == other.month && d.day == other.day
}

// Before orders civil dates lexicographically by (year, month, day).
func (d CalendarDate) Before(other CalendarDate) bool {
	if d.year != other.year {
		return d.year < other.year
	}
	return monthDayBefore(d, other)
}

// CalculateAge returns the number of whole years between birthDate and
// referenceDate. The year difference is reduced by one while the birthday has
// not yet occurred in the reference year, so it always agrees with
// IsOverMinimumAge. A Feb 29 birthday is reached on Mar 1 in non-leap years.
func CalculateAge(birthDate, referenceDate CalendarDate) int {
	years := referenceDate.year - birthDate.year
	if monthDayBefore(referenceDate, birthDate) {
		years--
	}
	return years
}

// IsOverAge reports whether the subject is at least years old on referenceDate.
// The boundary is inclusive: the anniversary itself counts.
func IsOverAge(birthDate, referenceDate CalendarDate, years int) bool {
	return CalculateAge(birthDate, referenceDate) >= years
}

// IsOverMinimumAge reports whether the subject has reached MinimumAge on
// referenceDate using civil-date arithmetic.
//
// Example:
//
//	birth := MustCalendarDate(2004, time.February, 29, tokyo)
//	IsOverMinimumAge(birth, MustCalendarDate(2024, time.February, 28, tokyo)) // false
//	IsOverMinimumAge(birth, MustCalendarDate(2024, time.March, 1, tokyo))     // true
func IsOverMinimumAge(birthDate, referenceDate CalendarDate) bool {
	return IsOverAge(birthDate, referenceDate, MinimumAge)
}

// IsBirthday reports whether month and day match exactly; the year is ignored.
func IsBirthday(birthDate, referenceDate CalendarDate) bool {
	return birthDate.month == referenceDate.month && birthDate.day == referenceDate.day
}

// monthDayBefore reports (a.month, a.day) < (b.month, b.day).
func monthDayBefore(a, b CalendarDate) bool {
	if a.month != b.month {
		return a.month < b.month
	}
	return a.day < b.day
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
