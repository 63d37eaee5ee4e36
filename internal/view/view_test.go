package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

var berlin = mustLoad("Europe/Berlin")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 3600)
	}
	return loc
}

func at(y int, m time.Month, d, hh, mm int) *time.Time {
	t := time.Date(y, m, d, hh, mm, 0, 0, berlin)
	return &t
}

func task(id, title string, due *time.Time, done bool) types.Task {
	return types.Task{ID: id, Title: title, DueDate: due, IsCompleted: done}
}

func titles(tasks []types.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestFilterCompletion(t *testing.T) {
	tasks := []types.Task{
		task("1", "open", nil, false),
		task("2", "done", nil, true),
		task("3", "also open", nil, false),
	}

	hidden := Filter(tasks, Query{ShowCompleted: false}, berlin)
	for _, got := range hidden {
		assert.False(t, got.IsCompleted, "completed task %q leaked into view", got.Title)
	}
	assert.Equal(t, []string{"open", "also open"}, titles(hidden))

	shown := Filter(tasks, Query{ShowCompleted: true}, berlin)
	assert.Len(t, shown, 3)
}

func TestFilterDateUsesLocalCalendarDay(t *testing.T) {
	target := at(2026, 3, 10, 12, 0)
	tasks := []types.Task{
		task("1", "early", at(2026, 3, 10, 0, 5), false),
		task("2", "late", at(2026, 3, 10, 23, 55), false),
		task("3", "next day within 24h", at(2026, 3, 11, 0, 30), false),
		task("4", "previous day", at(2026, 3, 9, 23, 59), false),
		task("5", "undated", nil, false),
	}

	got := Filter(tasks, Query{ShowCompleted: true, Date: target}, berlin)
	assert.Equal(t, []string{"early", "late"}, titles(got))
}

func TestFilterDateComparesInConfiguredLocation(t *testing.T) {
	// 23:30 UTC on the 9th is 00:30 on the 10th in Berlin.
	due := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)
	tasks := []types.Task{task("1", "midnight", &due, false)}

	got := Filter(tasks, Query{ShowCompleted: true, Date: at(2026, 3, 10, 8, 0)}, berlin)
	assert.Len(t, got, 1)

	got = Filter(tasks, Query{ShowCompleted: true, Date: at(2026, 3, 10, 8, 0)}, time.UTC)
	assert.Empty(t, got)
}

func TestFilterSearch(t *testing.T) {
	tasks := []types.Task{
		task("1", "Buy MILK", nil, false),
		task("2", "Call mom", nil, false),
		task("3", "Straße fegen", nil, false),
	}

	tests := []struct {
		search string
		want   []string
	}{
		{search: "", want: []string{"Buy MILK", "Call mom", "Straße fegen"}},
		{search: "milk", want: []string{"Buy MILK"}},
		{search: "M", want: []string{"Buy MILK", "Call mom"}},
		{search: " mom", want: []string{"Call mom"}},
		{search: "milk ", want: []string{}},
		{search: "   ", want: []string{}},
		{search: "STRASSE", want: []string{"Straße fegen"}},
		{search: "nothing", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			got := Filter(tasks, Query{ShowCompleted: true, Search: tt.search}, berlin)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestFilterPipelineCombined(t *testing.T) {
	day := at(2026, 3, 10, 9, 0)
	tasks := []types.Task{
		task("1", "Report draft", day, false),
		task("2", "Report final", day, true),
		task("3", "Report later", at(2026, 3, 12, 9, 0), false),
		task("4", "Groceries", day, false),
	}

	got := Filter(tasks, Query{ShowCompleted: false, Date: day, Search: "report"}, berlin)
	assert.Equal(t, []string{"Report draft"}, titles(got))
}

func TestSortDueDate(t *testing.T) {
	tasks := []types.Task{
		task("1", "undated A", nil, false),
		task("2", "late", at(2026, 3, 12, 9, 0), false),
		task("3", "early", at(2026, 3, 10, 9, 0), false),
		task("4", "undated B", nil, false),
	}

	got := Sort(tasks, types.SortDueDate, language.English)
	assert.Equal(t, []string{"early", "late", "undated A", "undated B"}, titles(got))
	assert.Equal(t, "undated A", tasks[0].Title, "input must not be reordered")
}

func TestSortTitleCaseInsensitive(t *testing.T) {
	tasks := []types.Task{
		task("1", "banana", nil, false),
		task("2", "Apple", nil, false),
		task("3", "cherry", nil, false),
		task("4", "Äpfel", nil, false),
	}

	got := Sort(tasks, types.SortTitle, language.German)
	assert.Equal(t, []string{"Äpfel", "Apple", "banana", "cherry"}, titles(got))
}

func TestSortTitleIdempotent(t *testing.T) {
	tasks := []types.Task{
		task("1", "b", nil, false),
		task("2", "A", nil, false),
		task("3", "a", nil, false),
		task("4", "B", nil, false),
		task("5", "c", nil, false),
	}

	once := Sort(tasks, types.SortTitle, language.English)
	twice := Sort(once, types.SortTitle, language.English)
	assert.Equal(t, once, twice)
}

func TestSortStatusIsStable(t *testing.T) {
	tasks := []types.Task{
		task("1", "done 1", nil, true),
		task("2", "open 1", nil, false),
		task("3", "done 2", nil, true),
		task("4", "open 2", nil, false),
	}

	got := Sort(tasks, types.SortStatus, language.English)
	assert.Equal(t, []string{"open 1", "open 2", "done 1", "done 2"}, titles(got))
}

func TestSortManualKeepsStoredOrder(t *testing.T) {
	tasks := []types.Task{
		task("1", "z", nil, true),
		task("2", "a", nil, false),
	}

	got := Sort(tasks, types.SortManual, language.English)
	assert.Equal(t, []string{"z", "a"}, titles(got))
	assert.NotNil(t, Sort(nil, types.SortManual, language.English))
}

func TestClassify(t *testing.T) {
	env := Env{Now: *at(2026, 3, 10, 12, 0), Location: berlin}

	tests := []struct {
		name string
		due  *time.Time
		want types.Section
	}{
		{name: "no due date", due: nil, want: types.SectionNoDueDate},
		{name: "earlier today is today", due: at(2026, 3, 10, 8, 0), want: types.SectionToday},
		{name: "later today", due: at(2026, 3, 10, 18, 0), want: types.SectionToday},
		{name: "yesterday", due: at(2026, 3, 9, 18, 0), want: types.SectionOverdue},
		{name: "tomorrow", due: at(2026, 3, 11, 9, 0), want: types.SectionUpcoming},
		{name: "next year", due: at(2027, 1, 1, 0, 0), want: types.SectionUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(task("x", "x", tt.due, false), env))
		})
	}
}

func TestBuyMilkMovesThroughSections(t *testing.T) {
	due := at(2026, 3, 11, 9, 0)
	milk := []types.Task{task("1", "Buy milk", due, false)}

	viewedToday := Partition(milk, Env{Now: *at(2026, 3, 10, 15, 0), Location: berlin})
	assert.Len(t, viewedToday.Get(types.SectionUpcoming), 1)

	onDueDate := Partition(milk, Env{Now: *at(2026, 3, 11, 7, 0), Location: berlin})
	assert.Len(t, onDueDate.Get(types.SectionToday), 1)

	laterOnDueDate := Partition(milk, Env{Now: *at(2026, 3, 11, 20, 0), Location: berlin})
	assert.Len(t, laterOnDueDate.Get(types.SectionToday), 1)

	dayAfter := Partition(milk, Env{Now: *at(2026, 3, 12, 8, 0), Location: berlin})
	assert.Len(t, dayAfter.Get(types.SectionOverdue), 1)
}

func TestGroupPartitionsFilteredSet(t *testing.T) {
	env := Env{Now: *at(2026, 3, 10, 12, 0), Location: berlin, Language: language.English}
	tasks := []types.Task{
		task("1", "overdue", at(2026, 3, 1, 9, 0), false),
		task("2", "today", at(2026, 3, 10, 9, 0), false),
		task("3", "upcoming", at(2026, 4, 1, 9, 0), true),
		task("4", "undated", nil, false),
		task("5", "today later", at(2026, 3, 10, 20, 0), false),
		task("6", "undated done", nil, true),
	}

	for _, showCompleted := range []bool{true, false} {
		q := Query{ShowCompleted: showCompleted, Sort: types.SortTitle}
		filtered := Derive(tasks, q, env)
		groups := DeriveGroups(tasks, q, env)

		require.Len(t, groups, 4)
		assert.Equal(t, len(filtered), groups.Len())
		assert.ElementsMatch(t, filtered, groups.Flatten())

		seen := map[string]int{}
		for _, g := range groups {
			for _, tk := range g.Tasks {
				seen[tk.ID]++
			}
		}
		for id, n := range seen {
			assert.Equal(t, 1, n, "task %s appears in %d sections", id, n)
		}
	}
}

func TestGroupPreservesSortOrderWithinSections(t *testing.T) {
	env := Env{Now: *at(2026, 3, 10, 12, 0), Location: berlin, Language: language.English}
	tasks := []types.Task{
		task("1", "zebra", at(2026, 3, 10, 9, 0), false),
		task("2", "alpha", at(2026, 3, 10, 20, 0), false),
		task("3", "mango", at(2026, 3, 10, 10, 0), false),
	}

	groups := DeriveGroups(tasks, Query{ShowCompleted: true, Sort: types.SortTitle}, env)
	assert.Equal(t, []string{"alpha", "mango", "zebra"}, titles(groups.Get(types.SectionToday)))

	groups = DeriveGroups(tasks, Query{ShowCompleted: true, Sort: types.SortDueDate}, env)
	assert.Equal(t, []string{"zebra", "mango", "alpha"}, titles(groups.Get(types.SectionToday)))
}

func TestGroupsNonEmpty(t *testing.T) {
	env := Env{Now: *at(2026, 3, 10, 12, 0), Location: berlin}
	groups := Partition([]types.Task{task("1", "undated", nil, false)}, env)

	ne := groups.NonEmpty()
	require.Len(t, ne, 1)
	assert.Equal(t, types.SectionNoDueDate, ne[0].Section)
	assert.Equal(t, "No Due Date", ne[0].Title)
}

func TestWeekStartsMonday(t *testing.T) {
	// 2026-03-12 is a Thursday.
	days := Week(*at(2026, 3, 12, 15, 0), berlin)
	require.Len(t, days, 7)
	assert.Equal(t, "2026-03-09", DayKey(days[0], berlin))
	assert.Equal(t, time.Monday, days[0].Weekday())
	assert.Equal(t, "2026-03-15", DayKey(days[6], berlin))

	sunday := Week(*at(2026, 3, 15, 10, 0), berlin)
	assert.Equal(t, "2026-03-09", DayKey(sunday[0], berlin))
}

func TestCountByDay(t *testing.T) {
	tasks := []types.Task{
		task("1", "a", at(2026, 3, 10, 9, 0), false),
		task("2", "b", at(2026, 3, 10, 21, 0), true),
		task("3", "c", at(2026, 3, 11, 9, 0), false),
		task("4", "d", at(2026, 4, 11, 9, 0), false),
		task("5", "e", nil, false),
	}

	counts := CountByDay(tasks, Week(*at(2026, 3, 10, 0, 0), berlin), berlin)
	assert.Len(t, counts, 7)
	assert.Equal(t, 2, counts["2026-03-10"])
	assert.Equal(t, 1, counts["2026-03-11"])
	assert.Equal(t, 0, counts["2026-03-15"])
}
