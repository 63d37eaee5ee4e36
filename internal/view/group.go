package view

import (
	"time"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

// Group is one section of a grouped view.
type Group struct {
	Section types.Section `json:"section"`
	Title   string        `json:"title"`
	Tasks   []types.Task  `json:"tasks"`
}

// Groups holds all four sections in display order, including empty ones.
type Groups []Group

// Classify returns the section a task belongs to at env.Now. A task due on
// today's local calendar day is in SectionToday even if its due time has
// already passed.
func Classify(t types.Task, env Env) types.Section {
	if t.DueDate == nil {
		return types.SectionNoDueDate
	}
	due := *t.DueDate
	switch {
	case SameDay(due, env.Now, env.location()):
		return types.SectionToday
	case due.Before(env.Now):
		return types.SectionOverdue
	default:
		return types.SectionUpcoming
	}
}

// Partition splits tasks into sections, preserving their order within each
// section. Every task lands in exactly one section.
func Partition(tasks []types.Task, env Env) Groups {
	sections := types.Sections()
	index := make(map[types.Section]int, len(sections))
	groups := make(Groups, len(sections))
	for i, s := range sections {
		index[s] = i
		groups[i] = Group{Section: s, Title: s.Title(), Tasks: []types.Task{}}
	}
	for _, t := range tasks {
		i := index[Classify(t, env)]
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	return groups
}

// Get returns the tasks in section s.
func (g Groups) Get(s types.Section) []types.Task {
	for _, grp := range g {
		if grp.Section == s {
			return grp.Tasks
		}
	}
	return nil
}

// Len counts the tasks across all sections.
func (g Groups) Len() int {
	n := 0
	for _, grp := range g {
		n += len(grp.Tasks)
	}
	return n
}

// Flatten concatenates the sections in display order.
func (g Groups) Flatten() []types.Task {
	out := make([]types.Task, 0, g.Len())
	for _, grp := range g {
		out = append(out, grp.Tasks...)
	}
	return out
}

// NonEmpty drops sections with no tasks.
func (g Groups) NonEmpty() Groups {
	out := make(Groups, 0, len(g))
	for _, grp := range g {
		if len(grp.Tasks) > 0 {
			out = append(out, grp)
		}
	}
	return out
}

// DayKey formats t as YYYY-MM-DD in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(time.DateOnly)
}

// Week returns the seven days, Monday first, of the week containing ref.
// Each day is midnight in loc.
func Week(ref time.Time, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}
	ref = ref.In(loc)
	offset := (int(ref.Weekday()) + 6) % 7
	y, m, d := ref.Date()
	start := time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// CountByDay counts tasks due on each of days, keyed by DayKey. Days with no
// tasks map to zero. Completion state is not considered.
func CountByDay(tasks []types.Task, days []time.Time, loc *time.Location) map[string]int {
	counts := make(map[string]int, len(days))
	for _, d := range days {
		counts[DayKey(d, loc)] = 0
	}
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		key := DayKey(*t.DueDate, loc)
		if _, ok := counts[key]; ok {
			counts[key]++
		}
	}
	return counts
}
