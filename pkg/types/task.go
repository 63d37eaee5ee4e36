package types

import (
	"strings"
	"time"
)

// Task is a single entry in a user's task list. The position of a task in
// the store sequence is its manual order and is not stored on the struct.
type Task struct {
	ID          string     `json:"id"`                // UUID v7, assigned on creation, never reused.
	Title       string     `json:"title"`             // Non-empty after trimming whitespace.
	DueDate     *time.Time `json:"dueDate,omitempty"` // Optional point in time.
	IsCompleted bool       `json:"isCompleted"`
	Notes       *string    `json:"notes,omitempty"`
}

// NormalizeTitle trims surrounding whitespace and returns ErrInvalidTitle if
// nothing is left.
func NormalizeTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrInvalidTitle
	}
	return trimmed, nil
}

// SetTitle validates and assigns a new title. The task is unchanged on error.
func (t *Task) SetTitle(title string) error {
	trimmed, err := NormalizeTitle(title)
	if err != nil {
		return err
	}
	t.Title = trimmed
	return nil
}

// Toggle flips the completion state.
func (t *Task) Toggle() {
	t.IsCompleted = !t.IsCompleted
}

// RemindAt reports the time a reminder should fire for this task. ok is
// false when the task has no due date or the due date is not strictly after
// now.
func (t Task) RemindAt(now time.Time) (at time.Time, ok bool) {
	if t.DueDate == nil || !t.DueDate.After(now) {
		return time.Time{}, false
	}
	return *t.DueDate, true
}

// Clone returns a deep copy; the pointer fields of the copy do not alias the
// original.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.Notes != nil {
		n := *t.Notes
		c.Notes = &n
	}
	return c
}

// TaskPatch describes an edit to an existing task. A nil Title leaves the
// title alone. DueDate and Notes are only applied when their Set flag is
// true, so a patch can clear either field by setting the flag with a nil
// value.
type TaskPatch struct {
	Title    *string
	SetDue   bool
	DueDate  *time.Time
	SetNotes bool
	Notes    *string
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && !p.SetDue && !p.SetNotes
}

// Apply validates the patch and applies it to t. On error t is unchanged.
func (p TaskPatch) Apply(t *Task) error {
	title := t.Title
	if p.Title != nil {
		trimmed, err := NormalizeTitle(*p.Title)
		if err != nil {
			return err
		}
		title = trimmed
	}
	t.Title = title
	if p.SetDue {
		if p.DueDate == nil {
			t.DueDate = nil
		} else {
			d := *p.DueDate
			t.DueDate = &d
		}
	}
	if p.SetNotes {
		if p.Notes == nil {
			t.Notes = nil
		} else {
			n := *p.Notes
			t.Notes = &n
		}
	}
	return nil
}

// Snapshot is the full ordered task sequence at one instant. It is the unit
// of persistence.
type Snapshot []Task

// Clone deep-copies the snapshot. A nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for i, t := range s {
		out[i] = t.Clone()
	}
	return out
}

// IDs returns the task identifiers in order.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s))
	for i, t := range s {
		ids[i] = t.ID
	}
	return ids
}

// Index returns the position of the task with the given id, or -1.
func (s Snapshot) Index(id string) int {
	for i, t := range s {
		if t.ID == id {
			return i
		}
	}
	return -1
}
