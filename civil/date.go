// Package civil implements timezone-independent calendar-day arithmetic.
//
// Recurrence matching must never depend on time-of-day, host locale or host
// timezone, so every operation in this package funnels through time.Date
// pinned to UTC. A Date is a pure (year, month, day) value; two Dates are
// the same day iff their fields are equal.
package civil

import (
	"fmt"
	"time"
)

// Date is a calendar day without time-of-day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an RFC 3339 full-date ("2006-01-02").
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("civil: parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of d. It is the single conversion point into
// time.Time space; all arithmetic below goes through it.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsValid reports whether d names a real calendar day (e.g. rejects Feb 30).
func (d Date) IsValid() bool {
	if d.Month < time.January || d.Month > time.December {
		return false
	}
	return d.Day >= 1 && d.Day <= DaysInMonth(d.Year, d.Month)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Equal(other Date) bool { return d == other }

func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

// Compare returns -1, 0 or +1 ordering d against other chronologically.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmp(d.Year, other.Year)
	case d.Month != other.Month:
		return cmp(int(d.Month), int(other.Month))
	default:
		return cmp(d.Day, other.Day)
	}
}

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// AddDays returns the date n whole days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// DaysBetween returns the whole-day count from d to other; positive when
// other is later. The delta is computed in integer day space; a
// time.Duration saturates a few hundred years out.
func DaysBetween(d, other Date) int {
	return other.epochDays() - d.epochDays()
}

// epochDays converts d to days since 1970-01-01 in the proleptic Gregorian
// calendar, March-based so leap days fall at the end of the shifted year.
func (d Date) epochDays() int {
	y, m := d.Year, int(d.Month)
	if m <= 2 {
		y--
		m += 9
	} else {
		m -= 3
	}
	era := floorDiv(y, 400)
	yoe := y - era*400
	doy := (153*m+2)/5 + d.Day - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// Weekday returns the day of week of d.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// WeekIndex returns the absolute index of the Monday-based week containing
// d, counted from an arbitrary fixed epoch. Only differences between two
// WeekIndex values are meaningful, which keeps first-day-of-week display
// conventions out of recurrence matching entirely.
func (d Date) WeekIndex() int {
	days := DaysBetween(Date{Year: 1970, Month: time.January, Day: 5}, d) // 1970-01-05 is a Monday
	return floorDiv(days, 7)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// DaysInMonth returns the length of the given month, leap-aware.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay limits day to the true length of the given month.
func ClampDay(year int, month time.Month, day int) int {
	if max := DaysInMonth(year, month); day > max {
		return max
	}
	return day
}

// AddMonths steps d forward n months, landing on targetDay clamped to the
// destination month's length. The clamp is always computed against the
// destination month, so a target of 31 yields Jan 31, Feb 28, Mar 31, ...
// rather than drifting once clamped.
func (d Date) AddMonths(n, targetDay int) Date {
	// Normalize month overflow through time.Date with day 1 to avoid the
	// AddDate rollover (Jan 31 + 1 month = Mar 3).
	t := time.Date(d.Year, d.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	y, m, _ := t.Date()
	return Date{Year: y, Month: m, Day: ClampDay(y, m, targetDay)}
}

// MonthIndex returns year*12 + (month-1), the absolute month ordinal used
// for interval divisibility checks.
func (d Date) MonthIndex() int {
	return d.Year*12 + int(d.Month) - 1
}

// IsLeapYear reports whether year has a Feb 29.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
