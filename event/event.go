// Package event defines the calendar event model shared by the recurrence
// engine, the storage boundary and the view builders.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/planora/libplanora/civil"
)

// Frequency is the unit of a recurrence rule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Content is the opaque payload carried by an event and copied into every
// occurrence. The engine never inspects it.
type Content struct {
	Title  string
	Notes  string
	Color  string
	AllDay bool
}

// RecurrenceRule describes how an event repeats from its origin date.
type RecurrenceRule struct {
	Frequency Frequency

	// Interval selects every Nth unit of Frequency; must be >= 1.
	Interval int

	// DaysOfWeek restricts weekly rules to the listed weekdays instead of
	// the origin's weekday. Ignored for other frequencies.
	DaysOfWeek []time.Weekday

	// DayOfMonth pins monthly rules to a day 1-31, clamped per destination
	// month; zero means the origin's day-of-month. Ignored for other
	// frequencies.
	DayOfMonth int

	// EndDate, when non-nil, is the last date (inclusive) on which an
	// occurrence may fall.
	EndDate *civil.Date

	// EndAfterCount, when > 0, limits the sequence to that many
	// occurrences counted from the origin inclusive. When both EndDate and
	// EndAfterCount are set, whichever bound is reached first terminates
	// the sequence.
	EndAfterCount int
}

// OnWeekday reports whether w is enabled by the rule's weekday filter.
func (r *RecurrenceRule) OnWeekday(w time.Weekday) bool {
	for _, d := range r.DaysOfWeek {
		if d == w {
			return true
		}
	}
	return false
}

// RecurrenceException modifies a single computed occurrence, keyed by the
// date the expansion would otherwise produce.
type RecurrenceException struct {
	// OriginalDate is the computed occurrence date this exception applies
	// to, never the moved date of an override.
	OriginalDate civil.Date

	// IsDeleted suppresses the occurrence entirely.
	IsDeleted bool

	// Override replaces the computed occurrence when IsDeleted is false.
	Override *Override
}

// Override carries replacement content for one occurrence. Date may differ
// from the original occurrence date when the instance was moved; the zero
// Date means "unchanged".
type Override struct {
	Date    civil.Date
	Content Content
}

// BaseEvent is the stored, authoritative event definition. It is owned and
// mutated only by the storage layer; the recurrence engine treats it as
// immutable input.
type BaseEvent struct {
	ID         string
	OriginDate civil.Date
	Content    Content

	// Rule is nil for one-off events, which occur exactly once on
	// OriginDate.
	Rule *RecurrenceRule

	Exceptions []RecurrenceException
}

// NewBaseEvent builds a one-off event on origin, assigning a fresh ID.
func NewBaseEvent(origin civil.Date, content Content) *BaseEvent {
	return &BaseEvent{
		ID:         uuid.NewString(),
		OriginDate: origin,
		Content:    content,
	}
}

// Occurrence is one concrete day an event happens on. Occurrences are
// transient values recomputed on every query; they are identified only by
// the (EventID, OriginalDate) pair and never persisted.
type Occurrence struct {
	EventID string

	// Date is the day the occurrence is displayed on. For overrides that
	// moved the instance it may differ from OriginalDate.
	Date civil.Date

	// OriginalDate is the computed occurrence date, the key under which
	// exceptions are looked up.
	OriginalDate civil.Date

	Content Content

	// IsOverride marks occurrences whose content came from an exception
	// rather than the base event.
	IsOverride bool
}
