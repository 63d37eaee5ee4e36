package view

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

// Sort returns a copy of tasks ordered by mode. All modes are stable, so
// tasks that compare equal keep their input order. SortManual (and any
// unrecognized mode) returns the input order unchanged.
func Sort(tasks []types.Task, mode types.SortMode, lang language.Tag) []types.Task {
	out := slices.Clone(tasks)
	if out == nil {
		out = []types.Task{}
	}
	switch mode {
	case types.SortDueDate:
		slices.SortStableFunc(out, compareDue)
	case types.SortTitle:
		// A Collator is not safe for concurrent use; build one per call.
		c := collate.New(lang, collate.IgnoreCase)
		slices.SortStableFunc(out, func(a, b types.Task) int {
			return c.CompareString(a.Title, b.Title)
		})
	case types.SortStatus:
		slices.SortStableFunc(out, compareStatus)
	}
	return out
}

// compareDue orders by due date ascending with undated tasks last.
func compareDue(a, b types.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}

// compareStatus puts incomplete tasks before completed ones.
func compareStatus(a, b types.Task) int {
	switch {
	case a.IsCompleted == b.IsCompleted:
		return 0
	case !a.IsCompleted:
		return -1
	default:
		return 1
	}
}
