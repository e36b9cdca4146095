package event

import "github.com/planora/libplanora/civil"

// ExceptionIndex provides date-keyed lookup over an event's exception list.
// The storage layer hands exception lists over as-is, so the index also owns
// the collision policy: when several exceptions claim the same original
// date, a deletion wins over any override, and among overrides the last one
// in list order wins.
//
// Callers go through this type rather than scanning BaseEvent.Exceptions so
// an indexed structure can replace the scan without touching the engine.
type ExceptionIndex struct {
	byDate map[civil.Date]RecurrenceException
}

// IndexExceptions builds an ExceptionIndex for ev.
func IndexExceptions(ev *BaseEvent) ExceptionIndex {
	if len(ev.Exceptions) == 0 {
		return ExceptionIndex{}
	}
	idx := ExceptionIndex{byDate: make(map[civil.Date]RecurrenceException, len(ev.Exceptions))}
	for _, exc := range ev.Exceptions {
		prev, ok := idx.byDate[exc.OriginalDate]
		if ok && prev.IsDeleted {
			continue
		}
		idx.byDate[exc.OriginalDate] = exc
	}
	return idx
}

// Lookup returns the exception governing the given computed occurrence
// date, if any.
func (idx ExceptionIndex) Lookup(date civil.Date) (RecurrenceException, bool) {
	exc, ok := idx.byDate[date]
	return exc, ok
}

// Len returns the number of distinct exception dates.
func (idx ExceptionIndex) Len() int {
	return len(idx.byDate)
}
