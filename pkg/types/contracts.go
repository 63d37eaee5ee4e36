package types

import (
	"context"
	"time"
)

// Persister durably stores the full task snapshot.
type Persister interface {
	// Save replaces the stored snapshot atomically. A concurrent reader sees
	// either the previous or the new snapshot, never a mix.
	Save(ctx context.Context, snap Snapshot) error

	// Load returns the stored snapshot. Missing content yields an empty
	// snapshot and a nil error. Unreadable content yields an empty snapshot
	// and an error wrapping ErrCorruptSnapshot.
	Load(ctx context.Context) (Snapshot, error)

	// Close releases backend resources. Idempotent.
	Close() error
}

// SaveTimer is implemented by Persisters that can report when the stored
// snapshot was last written.
type SaveTimer interface {
	// SavedAt returns the time of the last successful Save, or the zero
	// time if nothing has been saved.
	SavedAt(ctx context.Context) (time.Time, error)
}

// Scheduler receives reminder requests. The engine decides which reminders
// should exist; a Scheduler keeps at most one pending reminder per task id.
type Scheduler interface {
	// Schedule requests a one-shot reminder for taskID at fireAt, replacing
	// any pending reminder for the same id.
	Schedule(ctx context.Context, taskID, title string, fireAt time.Time) error

	// Cancel removes the pending reminder for taskID. Cancelling an unknown
	// or already fired reminder is not an error.
	Cancel(ctx context.Context, taskID string) error
}
