// Package view derives display lists from a task snapshot. Every function
// is pure: it reads the tasks it is given and returns new slices, leaving the
// stored order untouched.
//
// The pipeline order is fixed: completion filter, date filter, search filter,
// then sort. Grouping partitions the sorted result into sections.
package view

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

// Query selects and orders tasks for one view.
type Query struct {
	ShowCompleted bool
	Date          *time.Time // keep only tasks due on this local calendar day
	Search        string     // case-insensitive substring of the title
	Sort          types.SortMode
}

// Env carries the evaluation context a view depends on: the current time,
// the calendar used for day comparisons, and the language used for title
// collation.
type Env struct {
	Now      time.Time
	Location *time.Location
	Language language.Tag
}

func (e Env) location() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

// Derive runs the filter pipeline and sorts the result.
func Derive(tasks []types.Task, q Query, env Env) []types.Task {
	return Sort(Filter(tasks, q, env.location()), q.Sort, env.Language)
}

// DeriveGroups runs the same pipeline as Derive and partitions the result
// into sections. Each section keeps the sort order.
func DeriveGroups(tasks []types.Task, q Query, env Env) Groups {
	return Partition(Derive(tasks, q, env), env)
}

// Filter applies the completion, date, and search filters in that order.
func Filter(tasks []types.Task, q Query, loc *time.Location) []types.Task {
	if loc == nil {
		loc = time.Local
	}
	needle := fold(q.Search)

	out := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		if !q.ShowCompleted && t.IsCompleted {
			continue
		}
		if q.Date != nil {
			if t.DueDate == nil || !SameDay(*t.DueDate, *q.Date, loc) {
				continue
			}
		}
		if needle != "" && !strings.Contains(fold(t.Title), needle) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// fold returns a caseless form of s for substring matching.
func fold(s string) string {
	if s == "" {
		return s
	}
	return cases.Fold().String(s)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
