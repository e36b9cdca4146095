// Package recurrence expands recurring calendar events into concrete
// per-day occurrences. The engine is pure: it never mutates its inputs,
// performs no I/O, and every operation is bounded, so a single Engine may be
// shared across goroutines without coordination.
package recurrence

import (
	"fmt"
	"log/slog"

	"github.com/samber/mo"

	"github.com/planora/libplanora/civil"
	"github.com/planora/libplanora/event"
)

// Engine answers occurrence queries over base events.
type Engine struct {
	cache  *Cache
	config EngineConfig
	logger *slog.Logger
}

// NewEngine creates an engine with no result cache, suitable as a shared
// stateless instance.
func NewEngine() *Engine {
	return NewEngineWithConfig(DisabledCacheConfig)
}

// NewEngineWithConfig creates an engine with custom configuration. When the
// configuration enables caching, call Close when done to stop the cache's
// cleanup goroutine.
func NewEngineWithConfig(config EngineConfig) *Engine {
	e := &Engine{config: config, logger: config.Logger}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if config.CacheEnabled {
		e.cache = NewCache(config.CacheConfig)
	}
	return e
}

// Close releases the engine's cache resources, if any.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Stop()
	}
}

// OccurrenceOn reports whether ev occurs on date, returning the resolved
// occurrence when it does.
//
// Exceptions are consulted first: a deleted date returns None no matter
// what the rule says, and an override is returned as-is (its Date may
// legitimately differ from date when the instance was moved). The origin
// date is definitionally an occurrence. A malformed rule still honors the
// origin occurrence but nothing else, and the validation error is returned
// alongside the result for diagnostics.
func (e *Engine) OccurrenceOn(ev *event.BaseEvent, date civil.Date) (mo.Option[event.Occurrence], error) {
	idx := event.IndexExceptions(ev)
	if occ, handled := resolveException(ev, idx, date); handled {
		return occ, nil
	}

	if ev.Rule == nil {
		if date.Equal(ev.OriginDate) {
			return mo.Some(baseOccurrence(ev, date)), nil
		}
		return mo.None[event.Occurrence](), nil
	}

	if err := ValidateRule(ev.Rule); err != nil {
		err = fmt.Errorf("event %s: %w", ev.ID, err)
		if date.Equal(ev.OriginDate) {
			return mo.Some(baseOccurrence(ev, date)), err
		}
		return mo.None[event.Occurrence](), err
	}

	if date.Equal(ev.OriginDate) {
		return mo.Some(baseOccurrence(ev, date)), nil
	}
	if date.Before(ev.OriginDate) {
		return mo.None[event.Occurrence](), nil
	}
	if ev.Rule.EndDate != nil && date.After(*ev.Rule.EndDate) {
		return mo.None[event.Occurrence](), nil
	}

	if matchesRule(ev.OriginDate, ev.Rule, date) && withinCount(ev.OriginDate, ev.Rule, date) {
		return mo.Some(baseOccurrence(ev, date)), nil
	}
	return mo.None[event.Occurrence](), nil
}

// OccurrencesBetween lists every occurrence of ev in the inclusive range
// [from, to], date ascending, with exceptions resolved (deleted dates
// omitted, overrides substituted). A reversed range yields an empty result,
// not an error.
//
// The range is enumerated by stepping the occurrence sequence from the
// origin rather than testing each day. If stepping ever fails to advance,
// the walk aborts and the occurrences gathered so far are returned together
// with ErrStepNotAdvancing; partial results are valid.
func (e *Engine) OccurrencesBetween(ev *event.BaseEvent, from, to civil.Date) ([]event.Occurrence, error) {
	if from.After(to) {
		return nil, nil
	}

	if e.cache != nil {
		if occs, ok := e.cache.Get(ev, from, to); ok {
			return occs, nil
		}
	}

	idx := event.IndexExceptions(ev)
	out := make([]event.Occurrence, 0)
	emit := func(date civil.Date) {
		if date.Before(from) {
			return
		}
		if occ, handled := resolveException(ev, idx, date); handled {
			if o, ok := occ.Get(); ok {
				out = append(out, o)
			}
			return
		}
		out = append(out, baseOccurrence(ev, date))
	}

	if ev.Rule == nil {
		if !ev.OriginDate.Before(from) && !ev.OriginDate.After(to) {
			emit(ev.OriginDate)
		}
		return out, nil
	}

	rule := ev.Rule
	if err := ValidateRule(rule); err != nil {
		if !ev.OriginDate.Before(from) && !ev.OriginDate.After(to) {
			emit(ev.OriginDate)
		}
		return out, fmt.Errorf("event %s: %w", ev.ID, err)
	}

	end := to
	if rule.EndDate != nil && rule.EndDate.Before(to) {
		end = *rule.EndDate
	}

	cur := ev.OriginDate
	count := 0
	for !cur.After(end) {
		if rule.EndAfterCount > 0 && count >= rule.EndAfterCount {
			break
		}
		count++
		emit(cur)

		if e.config.MaxWalkOccurrences > 0 && count >= e.config.MaxWalkOccurrences {
			e.logger.Warn("recurrence expansion truncated",
				"event", ev.ID,
				"cap", e.config.MaxWalkOccurrences)
			break
		}

		next, ok := nextOccurrence(ev.OriginDate, rule, cur)
		if !ok {
			break
		}
		if !next.After(cur) {
			e.logger.Error("recurrence walk aborted",
				"event", ev.ID,
				"current", cur.String(),
				"next", next.String())
			return out, fmt.Errorf("event %s: stepping from %s to %s: %w",
				ev.ID, cur, next, ErrStepNotAdvancing)
		}
		cur = next
	}

	if e.cache != nil {
		e.cache.Set(ev, from, to, out)
	}
	return out, nil
}

// resolveException applies the exception governing date, if one exists.
// handled is false when no exception takes effect and normal rule
// evaluation should proceed.
func resolveException(ev *event.BaseEvent, idx event.ExceptionIndex, date civil.Date) (occ mo.Option[event.Occurrence], handled bool) {
	exc, ok := idx.Lookup(date)
	if !ok {
		return mo.None[event.Occurrence](), false
	}
	if exc.IsDeleted {
		return mo.None[event.Occurrence](), true
	}
	if exc.Override != nil {
		o := event.Occurrence{
			EventID:      ev.ID,
			Date:         exc.Override.Date,
			OriginalDate: date,
			Content:      exc.Override.Content,
			IsOverride:   true,
		}
		if o.Date.IsZero() {
			o.Date = date
		}
		return mo.Some(o), true
	}
	// An exception carrying neither a deletion nor an override changes
	// nothing.
	return mo.None[event.Occurrence](), false
}

func baseOccurrence(ev *event.BaseEvent, date civil.Date) event.Occurrence {
	return event.Occurrence{
		EventID:      ev.ID,
		Date:         date,
		OriginalDate: date,
		Content:      ev.Content,
	}
}
