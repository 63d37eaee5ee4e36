package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrateTask converts a tasks row into a types.Task.
func hydrateTask(row rowScanner) (types.Task, error) {
	var (
		t         types.Task
		due       sql.NullString
		completed int
		notes     sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Title, &due, &completed, &notes); err != nil {
		return types.Task{}, err
	}
	if t.ID == "" || strings.TrimSpace(t.Title) == "" {
		return types.Task{}, fmt.Errorf("task row missing id or title")
	}
	if due.Valid {
		d, err := time.Parse(time.RFC3339Nano, due.String)
		if err != nil {
			return types.Task{}, fmt.Errorf("task %s: parsing due_date: %w", t.ID, err)
		}
		t.DueDate = &d
	}
	t.IsCompleted = completed != 0
	if notes.Valid {
		n := notes.String
		t.Notes = &n
	}
	return t, nil
}

// dehydrateDue maps an optional due date to a nullable column value.
func dehydrateDue(due *time.Time) any {
	if due == nil {
		return nil
	}
	return due.Format(time.RFC3339Nano)
}

// dehydrateNotes maps optional notes to a nullable column value. Empty
// notes stay distinct from absent notes.
func dehydrateNotes(notes *string) any {
	if notes == nil {
		return nil
	}
	return *notes
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
