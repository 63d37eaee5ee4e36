package types

import (
	"errors"
	"fmt"
)

// Validation and lookup errors. Operations that return these leave the store
// unchanged.
var (
	ErrInvalidTitle    = errors.New("title must not be empty")
	ErrNotFound        = errors.New("task not found")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidSortMode = errors.New("invalid sort mode")
	ErrNoChanges       = errors.New("no changes requested")
)

// Persistence and scheduling errors.
var (
	ErrPersistence     = errors.New("persistence failure")
	ErrCorruptSnapshot = errors.New("stored snapshot is unreadable")
	ErrReminderInPast  = errors.New("reminder time is not in the future")
	ErrWriterClosed    = errors.New("snapshot writer is closed")
)

// PersistenceError reports a failed Save or Load. The in-memory store stays
// authoritative when one is returned; the next mutation saves again.
type PersistenceError struct {
	Op  string // "save" or "load"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s snapshot: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPersistence) match any PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
