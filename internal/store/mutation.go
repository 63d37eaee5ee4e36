package store

import (
	"slices"
	"time"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

// EffectKind names a scheduler request produced by a mutation.
type EffectKind string

// Effect kinds.
const (
	EffectSchedule EffectKind = "schedule"
	EffectCancel   EffectKind = "cancel"
)

// Effect is a scheduler request to perform after a mutation has been
// applied and handed to persistence.
type Effect struct {
	Kind   EffectKind
	TaskID string
	Title  string
	FireAt time.Time
}

func scheduleEffect(t types.Task, now time.Time) (Effect, bool) {
	at, ok := t.RemindAt(now)
	if !ok {
		return Effect{}, false
	}
	return Effect{Kind: EffectSchedule, TaskID: t.ID, Title: t.Title, FireAt: at}, true
}

func cancelEffect(id string) Effect {
	return Effect{Kind: EffectCancel, TaskID: id}
}

// The plan functions below are the pure half of each mutation. They never
// modify their input snapshot; on error the caller keeps the old one.

// planCreate appends t and requests a reminder when t is due in the future.
func planCreate(tasks types.Snapshot, t types.Task, now time.Time) (types.Snapshot, []Effect) {
	next := append(slices.Clip(tasks), t)
	var effects []Effect
	if e, ok := scheduleEffect(t, now); ok {
		effects = append(effects, e)
	}
	return next, effects
}

// planUpdate applies patch to the task with id, cancels its reminder, and
// reschedules when the resulting due date is in the future.
func planUpdate(tasks types.Snapshot, id string, patch types.TaskPatch, now time.Time) (types.Snapshot, []Effect, error) {
	i := tasks.Index(id)
	if i < 0 {
		return nil, nil, types.ErrNotFound
	}
	updated := tasks[i].Clone()
	if err := patch.Apply(&updated); err != nil {
		return nil, nil, err
	}
	next := slices.Clone(tasks)
	next[i] = updated

	effects := []Effect{cancelEffect(id)}
	if e, ok := scheduleEffect(updated, now); ok {
		effects = append(effects, e)
	}
	return next, effects, nil
}

// planToggle flips completion. Reminders are left alone: a completed task
// keeps any pending reminder.
func planToggle(tasks types.Snapshot, id string) (types.Snapshot, error) {
	i := tasks.Index(id)
	if i < 0 {
		return nil, types.ErrNotFound
	}
	next := slices.Clone(tasks)
	next[i].Toggle()
	return next, nil
}

// planDelete removes every task whose id is in ids, keeping survivors in
// order, and cancels each removed task's reminder. Unknown ids are ignored
// unless none of the ids match.
func planDelete(tasks types.Snapshot, ids []string) (types.Snapshot, []Effect, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	next := make(types.Snapshot, 0, len(tasks))
	var effects []Effect
	for _, t := range tasks {
		if want[t.ID] {
			effects = append(effects, cancelEffect(t.ID))
			continue
		}
		next = append(next, t)
	}
	if len(effects) == 0 {
		return nil, nil, types.ErrNotFound
	}
	return next, effects, nil
}

// planDeleteAll clears the snapshot and cancels every reminder.
func planDeleteAll(tasks types.Snapshot) (types.Snapshot, []Effect) {
	effects := make([]Effect, 0, len(tasks))
	for _, t := range tasks {
		effects = append(effects, cancelEffect(t.ID))
	}
	return types.Snapshot{}, effects
}

// planReorder moves the tasks at positions from so that they sit before the
// task that was at position to (or at the end when to == len(tasks)). The
// moved tasks keep their relative order. Duplicate positions count once.
func planReorder(tasks types.Snapshot, from []int, to int) (types.Snapshot, error) {
	n := len(tasks)
	if to < 0 || to > n {
		return nil, types.ErrInvalidPosition
	}
	moving := make(map[int]bool, len(from))
	for _, i := range from {
		if i < 0 || i >= n {
			return nil, types.ErrInvalidPosition
		}
		moving[i] = true
	}

	moved := make(types.Snapshot, 0, len(moving))
	rest := make(types.Snapshot, 0, n-len(moving))
	insert := to
	for i, t := range tasks {
		if moving[i] {
			moved = append(moved, t)
			if i < to {
				insert--
			}
			continue
		}
		rest = append(rest, t)
	}

	next := make(types.Snapshot, 0, n)
	next = append(next, rest[:insert]...)
	next = append(next, moved...)
	next = append(next, rest[insert:]...)
	return next, nil
}
