package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

func (a *app) newAddCmd() *cobra.Command {
	var due, notes string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dueAt *time.Time
			if due != "" {
				d, err := a.parseDate(due)
				if err != nil {
					return err
				}
				dueAt = &d
			}
			var notesPtr *string
			if cmd.Flags().Changed("notes") {
				notesPtr = &notes
			}

			st, err := a.mutableStore(cmd.Context())
			if err != nil {
				return err
			}
			task, err := st.Create(cmd.Context(), args[0], dueAt, notesPtr)
			if err != nil {
				return err
			}
			if err := checkSaved(st); err != nil {
				return err
			}
			return a.printTask(cmd.OutOrStdout(), task)
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD, \"YYYY-MM-DD HH:MM\", RFC 3339, today, tomorrow)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func (a *app) newEditCmd() *cobra.Command {
	var title, due, notes string
	var clearDue, clearNotes bool
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task's title, due date, or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch types.TaskPatch
			if flags.Changed("title") {
				patch.Title = &title
			}
			switch {
			case clearDue && flags.Changed("due"):
				return fmt.Errorf("--due and --clear-due are mutually exclusive")
			case clearDue:
				patch.SetDue = true
			case flags.Changed("due"):
				d, err := a.parseDate(due)
				if err != nil {
					return err
				}
				patch.SetDue = true
				patch.DueDate = &d
			}
			switch {
			case clearNotes && flags.Changed("notes"):
				return fmt.Errorf("--notes and --clear-notes are mutually exclusive")
			case clearNotes:
				patch.SetNotes = true
			case flags.Changed("notes"):
				patch.SetNotes = true
				patch.Notes = &notes
			}
			if patch.Empty() {
				return types.ErrNoChanges
			}

			st, err := a.mutableStore(cmd.Context())
			if err != nil {
				return err
			}
			id, err := resolveID(st, args[0])
			if err != nil {
				return err
			}
			if err := st.Update(cmd.Context(), id, patch); err != nil {
				return err
			}
			if err := checkSaved(st); err != nil {
				return err
			}
			task, err := st.Get(id)
			if err != nil {
				return err
			}
			return a.printTask(cmd.OutOrStdout(), task)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&due, "due", "", "new due date")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	cmd.Flags().BoolVar(&clearNotes, "clear-notes", false, "remove the notes")
	return cmd
}

func (a *app) newDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between open and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.mutableStore(cmd.Context())
			if err != nil {
				return err
			}
			id, err := resolveID(st, args[0])
			if err != nil {
				return err
			}
			if err := st.ToggleCompletion(cmd.Context(), id); err != nil {
				return err
			}
			if err := checkSaved(st); err != nil {
				return err
			}
			task, err := st.Get(id)
			if err != nil {
				return err
			}
			return a.printTask(cmd.OutOrStdout(), task)
		},
	}
}

func (a *app) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.mutableStore(cmd.Context())
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(args))
			for _, arg := range args {
				id, err := resolveID(st, arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if err := st.Delete(cmd.Context(), ids...); err != nil {
				return err
			}
			if err := checkSaved(st); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"deleted": ids})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d task(s)\n", len(ids))
			return nil
		},
	}
}

func (a *app) newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all tasks without --yes")
			}
			st, err := a.mutableStore(cmd.Context())
			if err != nil {
				return err
			}
			n := st.Len()
			if err := st.DeleteAll(cmd.Context()); err != nil {
				return err
			}
			if err := checkSaved(st); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"deleted": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d task(s)\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all tasks")
	return cmd
}

func (a *app) newMoveCmd() *cobra.Command {
	var to int
	cmd := &cobra.Command{
		Use:   "move <pos>... --to <pos>",
		Short: "Reorder tasks in the manual order",
		Long: "Move the tasks at the given 1-based positions of the manual order so that\n" +
			"they sit before the task currently at --to. Use --to N+1 to move to the end.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("to") {
				return fmt.Errorf("--to is required")
			}
			from := make([]int, 0, len(args))
			for _, arg := range args {
				pos, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("%w: %q", types.ErrInvalidPosition, arg)
				}
				from = append(from, pos-1)
			}

			st, err := a.mutableStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := st.Reorder(cmd.Context(), from, to-1); err != nil {
				return err
			}
			if err := checkSaved(st); err != nil {
				return err
			}
			return a.printList(cmd.OutOrStdout(), st.Tasks(), true)
		},
	}
	cmd.Flags().IntVar(&to, "to", 0, "1-based destination position")
	return cmd
}
