// Package memory provides an in-memory Storage implementation, primarily
// for tests and examples.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planora/libplanora/civil"
	"github.com/planora/libplanora/event"
	"github.com/planora/libplanora/storage"
)

// Store implements storage.Storage using in-memory maps.
type Store struct {
	mu     sync.RWMutex
	events map[string]*event.BaseEvent
}

// New creates a new in-memory storage.
func New() *Store {
	return &Store{
		events: make(map[string]*event.BaseEvent),
	}
}

// copyEvent deep-copies ev so readers never share mutable state with the
// store. The engine assumes immutable inputs, so reads and writes both copy.
func copyEvent(ev *event.BaseEvent) *event.BaseEvent {
	cp := *ev
	if ev.Rule != nil {
		rule := *ev.Rule
		if ev.Rule.DaysOfWeek != nil {
			rule.DaysOfWeek = append([]time.Weekday(nil), ev.Rule.DaysOfWeek...)
		}
		if ev.Rule.EndDate != nil {
			end := *ev.Rule.EndDate
			rule.EndDate = &end
		}
		cp.Rule = &rule
	}
	if ev.Exceptions != nil {
		cp.Exceptions = make([]event.RecurrenceException, len(ev.Exceptions))
		for i, exc := range ev.Exceptions {
			if exc.Override != nil {
				ov := *exc.Override
				exc.Override = &ov
			}
			cp.Exceptions[i] = exc
		}
	}
	return &cp
}

func (s *Store) GetEvent(_ context.Context, id string) (*event.BaseEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok {
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "event not found",
		}
	}

	return copyEvent(ev), nil
}

func (s *Store) ListEvents(_ context.Context) ([]*event.BaseEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*event.BaseEvent, 0, len(s.events))
	for _, ev := range s.events {
		events = append(events, copyEvent(ev))
	}

	return events, nil
}

func (s *Store) PutEvent(_ context.Context, ev *event.BaseEvent) error {
	if ev == nil {
		return &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "event is nil",
		}
	}
	if !ev.OriginDate.IsValid() {
		return &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "origin date is not a calendar day",
		}
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[ev.ID] = copyEvent(ev)
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "event not found",
		}
	}

	delete(s.events, id)
	return nil
}

func (s *Store) PutException(_ context.Context, eventID string, exc event.RecurrenceException) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "event not found",
		}
	}

	if exc.Override != nil {
		ov := *exc.Override
		exc.Override = &ov
	}

	for i := range ev.Exceptions {
		if ev.Exceptions[i].OriginalDate.Equal(exc.OriginalDate) {
			ev.Exceptions[i] = exc
			return nil
		}
	}
	ev.Exceptions = append(ev.Exceptions, exc)
	return nil
}

func (s *Store) DeleteException(_ context.Context, eventID string, originalDate civil.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "event not found",
		}
	}

	kept := ev.Exceptions[:0]
	for _, exc := range ev.Exceptions {
		if !exc.OriginalDate.Equal(originalDate) {
			kept = append(kept, exc)
		}
	}
	ev.Exceptions = kept
	return nil
}
