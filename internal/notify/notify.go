// Package notify implements the reminder scheduler contract. The journal
// adapter keeps pending reminders in a JSONL file that an OS-level notifier
// can consume; the other adapters disable, log, or fan out requests.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

// ReminderTitle is the heading of every reminder notification.
const ReminderTitle = "Task Reminder"

// Reminder is a pending notification for one task.
type Reminder struct {
	TaskID string    `json:"taskId"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	FireAt time.Time `json:"fireAt"`
}

// NewReminder builds the notification content for a task.
func NewReminder(taskID, taskTitle string, fireAt time.Time) Reminder {
	return Reminder{TaskID: taskID, Title: ReminderTitle, Body: taskTitle, FireAt: fireAt}
}

// Nop drops every request. It is used when reminders are disabled.
type Nop struct{}

// Schedule implements types.Scheduler.
func (Nop) Schedule(context.Context, string, string, time.Time) error { return nil }

// Cancel implements types.Scheduler.
func (Nop) Cancel(context.Context, string) error { return nil }

// Logger writes each request to a log.Logger.
type Logger struct {
	logger *log.Logger
}

// NewLogger returns a Logger adapter writing to l.
func NewLogger(l *log.Logger) *Logger {
	return &Logger{logger: l}
}

// Schedule implements types.Scheduler.
func (l *Logger) Schedule(_ context.Context, taskID, title string, fireAt time.Time) error {
	l.logger.Printf("reminder scheduled: task %s %q at %s", taskID, title, fireAt.Format(time.RFC3339))
	return nil
}

// Cancel implements types.Scheduler.
func (l *Logger) Cancel(_ context.Context, taskID string) error {
	l.logger.Printf("reminder cancelled: task %s", taskID)
	return nil
}

// Multi forwards each request to every scheduler in order. All schedulers
// are called even if one fails; the errors are joined.
type Multi []types.Scheduler

// Schedule implements types.Scheduler.
func (m Multi) Schedule(ctx context.Context, taskID, title string, fireAt time.Time) error {
	var errs []error
	for _, s := range m {
		if err := s.Schedule(ctx, taskID, title, fireAt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Cancel implements types.Scheduler.
func (m Multi) Cancel(ctx context.Context, taskID string) error {
	var errs []error
	for _, s := range m {
		if err := s.Cancel(ctx, taskID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// checkFuture guards adapters against reminders that could never fire.
func checkFuture(fireAt, now time.Time) error {
	if !fireAt.After(now) {
		return fmt.Errorf("%w: %s", types.ErrReminderInPast, fireAt.Format(time.RFC3339))
	}
	return nil
}
