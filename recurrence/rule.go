package recurrence

import (
	"fmt"
	"time"

	"github.com/planora/libplanora/civil"
	"github.com/planora/libplanora/event"
)

// maxLeapSearchYears bounds the yearly stepper's search for the next leap
// year holding a Feb 29 occurrence. Leap years are at most 8 years apart, so
// this covers every interval that can ever align with one.
const maxLeapSearchYears = 500

// ValidateRule checks a rule for structural validity. A nil rule (one-off
// event) is valid.
func ValidateRule(r *event.RecurrenceRule) error {
	if r == nil {
		return nil
	}
	switch r.Frequency {
	case event.Daily, event.Weekly, event.Monthly, event.Yearly:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: got %d", ErrNonPositiveInterval, r.Interval)
	}
	if r.DayOfMonth < 0 || r.DayOfMonth > 31 {
		return fmt.Errorf("%w: got %d", ErrInvalidDayOfMonth, r.DayOfMonth)
	}
	for _, d := range r.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: got %d", ErrInvalidWeekday, int(d))
		}
	}
	if r.EndAfterCount < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeCount, r.EndAfterCount)
	}
	return nil
}

// monthlyTargetDay returns the rule's nominal day-of-month before clamping:
// the explicit DayOfMonth if set, else the origin's day.
func monthlyTargetDay(origin civil.Date, r *event.RecurrenceRule) int {
	if r.DayOfMonth > 0 {
		return r.DayOfMonth
	}
	return origin.Day
}

// matchesRule reports whether date falls on the rule's pattern relative to
// origin. It assumes a validated rule and date strictly after origin with
// the end-date bound already applied; the end-after-count bound is checked
// separately.
func matchesRule(origin civil.Date, r *event.RecurrenceRule, date civil.Date) bool {
	switch r.Frequency {
	case event.Daily:
		return civil.DaysBetween(origin, date)%r.Interval == 0

	case event.Weekly:
		if len(r.DaysOfWeek) > 0 {
			if !r.OnWeekday(date.Weekday()) {
				return false
			}
		} else if date.Weekday() != origin.Weekday() {
			return false
		}
		return (date.WeekIndex()-origin.WeekIndex())%r.Interval == 0

	case event.Monthly:
		target := civil.ClampDay(date.Year, date.Month, monthlyTargetDay(origin, r))
		if date.Day != target {
			return false
		}
		return (date.MonthIndex()-origin.MonthIndex())%r.Interval == 0

	case event.Yearly:
		if date.Month != origin.Month || date.Day != origin.Day {
			return false
		}
		return (date.Year-origin.Year)%r.Interval == 0
	}
	return false
}

// withinCount reports whether date's position in the occurrence sequence is
// inside the rule's end-after-count bound. Daily rules use the closed-form
// index; the other frequencies walk the sequence from the origin, which the
// count bound itself keeps finite. Weekday filtering makes the weekly index
// non-linear, so the walk is not an optimization shortcut there.
func withinCount(origin civil.Date, r *event.RecurrenceRule, date civil.Date) bool {
	if r.EndAfterCount <= 0 {
		return true
	}
	if r.Frequency == event.Daily {
		return civil.DaysBetween(origin, date)/r.Interval < r.EndAfterCount
	}
	cur := origin
	for n := 1; n <= r.EndAfterCount; n++ {
		if cur.Equal(date) {
			return true
		}
		next, ok := nextOccurrence(origin, r, cur)
		if !ok || !next.After(cur) {
			return false
		}
		cur = next
	}
	return false
}

// nextOccurrence computes the first pattern date strictly after cur, where
// cur is the origin or a previously stepped date. ok is false when the rule
// has no further occurrence within the stepper's search bounds (only
// possible for leap-day yearly rules).
func nextOccurrence(origin civil.Date, r *event.RecurrenceRule, cur civil.Date) (next civil.Date, ok bool) {
	switch r.Frequency {
	case event.Daily:
		return cur.AddDays(r.Interval), true

	case event.Weekly:
		if len(r.DaysOfWeek) == 0 {
			return cur.AddDays(7 * r.Interval), true
		}
		// Scan forward for the next enabled weekday inside an aligned
		// week. The next qualifying week starts at most interval weeks
		// out, so the bound always suffices for a valid rule.
		d := cur.AddDays(1)
		for i := 0; i < 7*(r.Interval+1); i++ {
			if r.OnWeekday(d.Weekday()) && (d.WeekIndex()-origin.WeekIndex())%r.Interval == 0 {
				return d, true
			}
			d = d.AddDays(1)
		}
		return civil.Date{}, false

	case event.Monthly:
		target := monthlyTargetDay(origin, r)
		// An origin earlier in the month than the rule's target day still
		// has the target occurrence in its own month.
		if clamped := civil.ClampDay(cur.Year, cur.Month, target); clamped > cur.Day {
			return civil.Date{Year: cur.Year, Month: cur.Month, Day: clamped}, true
		}
		return cur.AddMonths(r.Interval, target), true

	case event.Yearly:
		if origin.Month == time.February && origin.Day == 29 {
			// Leap-day rules skip years without a Feb 29 rather than
			// clamping to Feb 28.
			for y := cur.Year + r.Interval; y <= cur.Year+maxLeapSearchYears; y += r.Interval {
				if civil.IsLeapYear(y) {
					return civil.Date{Year: y, Month: origin.Month, Day: origin.Day}, true
				}
			}
			return civil.Date{}, false
		}
		return civil.Date{Year: cur.Year + r.Interval, Month: origin.Month, Day: origin.Day}, true
	}
	return civil.Date{}, false
}
