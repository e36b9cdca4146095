// Package storage defines the boundary to the event persistence layer. The
// recurrence engine never touches it; callers load events here and hand them
// to the engine.
package storage

import (
	"context"
	"fmt"

	"github.com/planora/libplanora/civil"
	"github.com/planora/libplanora/event"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a storage Error of type ErrNotFound.
func IsNotFound(err error) bool {
	se, ok := err.(*Error)
	return ok && se.Type == ErrNotFound
}

// Storage is the event persistence interface. Implementations own the
// BaseEvent lifecycle; values returned from reads must be safe for the
// caller to hold while the store is mutated concurrently.
type Storage interface {
	// GetEvent returns the event with the given ID.
	GetEvent(ctx context.Context, id string) (*event.BaseEvent, error)

	// ListEvents returns all stored events.
	ListEvents(ctx context.Context) ([]*event.BaseEvent, error)

	// PutEvent creates or replaces an event. An empty ID is assigned by
	// the store and written back to ev.
	PutEvent(ctx context.Context, ev *event.BaseEvent) error

	// DeleteEvent removes an event and its exceptions.
	DeleteEvent(ctx context.Context, id string) error

	// PutException adds or replaces the exception for its OriginalDate on
	// the given event.
	PutException(ctx context.Context, eventID string, exc event.RecurrenceException) error

	// DeleteException removes the exception keyed by originalDate, if any.
	DeleteException(ctx context.Context, eventID string, originalDate civil.Date) error
}
