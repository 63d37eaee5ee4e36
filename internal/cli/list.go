package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskly/internal/notify"
	"github.com/mesh-intelligence/taskly/internal/view"
	"github.com/mesh-intelligence/taskly/pkg/types"
)

// printList writes tasks one per line. numbered prefixes each line with its
// 1-based position, which is what "move" accepts under the manual order.
func (a *app) printList(w io.Writer, tasks []types.Task, numbered bool) error {
	if a.flags.jsonMode {
		if tasks == nil {
			tasks = []types.Task{}
		}
		return writeJSON(w, tasks)
	}
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return nil
	}
	ids := a.taskPrefixes()
	for i, t := range tasks {
		if numbered {
			fmt.Fprintf(w, "%3d. %s\n", i+1, a.formatTask(t, ids))
		} else {
			fmt.Fprintln(w, a.formatTask(t, ids))
		}
	}
	return nil
}

func (a *app) printGroups(w io.Writer, groups view.Groups) error {
	if a.flags.jsonMode {
		return writeJSON(w, groups)
	}
	shown := groups.NonEmpty()
	if len(shown) == 0 {
		fmt.Fprintln(w, "No tasks")
		return nil
	}
	ids := a.taskPrefixes()
	for i, g := range shown {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", g.Title, len(g.Tasks))
		for _, t := range g.Tasks {
			fmt.Fprintf(w, "  %s\n", a.formatTask(t, ids))
		}
	}
	return nil
}

func (a *app) newListCmd() *cobra.Command {
	var all, grouped bool
	var date, search, sortFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context(), "", false)
			if err != nil {
				return err
			}
			if sortFlag != "" {
				mode, err := types.ParseSortMode(sortFlag)
				if err != nil {
					return err
				}
				if err := st.SetSort(mode); err != nil {
					return err
				}
			}
			if all {
				st.SetShowCompleted(true)
			}
			var datePtr *time.Time
			if date != "" {
				d, err := a.parseDate(date)
				if err != nil {
					return err
				}
				datePtr = &d
			}

			if grouped {
				return a.printGroups(cmd.OutOrStdout(), st.GroupedTasks(datePtr, search))
			}
			tasks := st.FilteredTasks(st.ShowCompleted(), datePtr, search)
			numbered := st.SortMode() == types.SortManual && datePtr == nil && search == "" && st.ShowCompleted()
			return a.printList(cmd.OutOrStdout(), tasks, numbered)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed tasks")
	cmd.Flags().BoolVarP(&grouped, "grouped", "g", false, "group into Overdue, Today, Upcoming, No Due Date")
	cmd.Flags().StringVar(&date, "date", "", "only tasks due on this day")
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive title search")
	cmd.Flags().StringVar(&sortFlag, "sort", "", "sort mode: manual, due_date, title, status")
	return cmd
}

type dayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func (a *app) newWeekCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show how many tasks are due on each day of a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := a.now()
			if date != "" {
				d, err := a.parseDate(date)
				if err != nil {
					return err
				}
				ref = d
			}
			st, err := a.openStore(cmd.Context(), "", false)
			if err != nil {
				return err
			}
			days, counts := st.Week(ref)
			out := make([]dayCount, len(days))
			for i, d := range days {
				key := view.DayKey(d, a.loc)
				out[i] = dayCount{Date: key, Count: counts[key]}
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			for i, d := range days {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %d\n", d.Format("Mon"), out[i].Date, out[i].Count)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "any day of the week to show (default today)")
	return cmd
}

func (a *app) newRemindersCmd() *cobra.Command {
	var dueOnly bool
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List pending reminders from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.openJournal()
			if err != nil {
				return sysErr("open reminder journal: %w", err)
			}
			if j == nil {
				return fmt.Errorf("the reminder journal is disabled (reminders.enabled and reminders.journal)")
			}
			var list []notify.Reminder
			if dueOnly {
				list = j.Due(a.now())
			} else {
				list = j.Pending()
			}
			if a.flags.jsonMode {
				if list == nil {
					list = []notify.Reminder{}
				}
				return writeJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending reminders")
				return nil
			}
			taskIDs := make([]string, len(list))
			for i, r := range list {
				taskIDs[i] = r.TaskID
			}
			ids := uniquePrefixes(taskIDs)
			for _, r := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", r.FireAt.In(a.loc).Format("2006-01-02 15:04"), ids.of(r.TaskID), r.Body)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dueOnly, "due", false, "only reminders whose time has passed")
	return cmd
}
