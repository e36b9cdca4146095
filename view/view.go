// Package view builds day-indexed calendar views by merging per-event
// recurrence expansions.
package view

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/planora/libplanora/civil"
	"github.com/planora/libplanora/event"
	"github.com/planora/libplanora/recurrence"
)

// View is a day-indexed set of occurrences over an inclusive date range.
type View struct {
	From civil.Date
	To   civil.Date

	days map[civil.Date][]event.Occurrence
}

// On returns the occurrences falling on date, in the order the source
// events were supplied.
func (v *View) On(date civil.Date) []event.Occurrence {
	return v.days[date]
}

// Days returns the populated dates in ascending order.
func (v *View) Days() []civil.Date {
	out := make([]civil.Date, 0, len(v.days))
	for d := range v.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Len returns the total number of occurrences across all days.
func (v *View) Len() int {
	n := 0
	for _, occs := range v.days {
		n += len(occs)
	}
	return n
}

// Builder assembles Views from base events using a recurrence engine.
type Builder struct {
	engine *recurrence.Engine
	logger *slog.Logger
}

// NewBuilder creates a Builder on the given engine. A nil logger falls back
// to slog.Default().
func NewBuilder(engine *recurrence.Engine, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{engine: engine, logger: logger}
}

// Range expands every event over [from, to] and merges the results into a
// day-indexed View. Occurrences are indexed under their display date, so a
// moved override lands on the day it is shown, not the day it replaced.
//
// Per-event expansion failures do not stop the build: the event's partial
// results are kept, the failure is logged, and the joined errors are
// returned alongside the completed View.
func (b *Builder) Range(events []*event.BaseEvent, from, to civil.Date) (*View, error) {
	v := &View{
		From: from,
		To:   to,
		days: make(map[civil.Date][]event.Occurrence),
	}

	var errs []error
	for _, ev := range events {
		occs, err := b.engine.OccurrencesBetween(ev, from, to)
		if err != nil {
			b.logger.Warn("event expansion failed",
				"event", ev.ID,
				"error", err)
			errs = append(errs, err)
		}
		for _, occ := range occs {
			v.days[occ.Date] = append(v.days[occ.Date], occ)
		}
	}

	return v, errors.Join(errs...)
}

// Month builds the view for one full calendar month.
func (b *Builder) Month(events []*event.BaseEvent, year int, month time.Month) (*View, error) {
	from := civil.Date{Year: year, Month: month, Day: 1}
	to := civil.Date{Year: year, Month: month, Day: civil.DaysInMonth(year, month)}
	return b.Range(events, from, to)
}
