package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

type statusReport struct {
	Backend   string     `json:"backend"`
	DataDir   string     `json:"dataDir"`
	Tasks     int        `json:"tasks"`
	Completed int        `json:"completed"`
	Reminders *int       `json:"reminders,omitempty"`
	SavedAt   *time.Time `json:"savedAt,omitempty"`
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show storage, task, and reminder counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := a.newPersister()
			if err != nil {
				return sysErr("open %s backend: %w", a.cfg.Backend, err)
			}
			defer p.Close()
			snap, err := p.Load(ctx)
			if err != nil {
				return sysErr("read tasks: %w", err)
			}

			report := statusReport{Backend: a.cfg.Backend, DataDir: a.dataDir, Tasks: len(snap)}
			for _, t := range snap {
				if t.IsCompleted {
					report.Completed++
				}
			}
			if timer, ok := p.(types.SaveTimer); ok {
				at, err := timer.SavedAt(ctx)
				if err != nil {
					return sysErr("read save time: %w", err)
				}
				if !at.IsZero() {
					at = at.In(a.loc)
					report.SavedAt = &at
				}
			}
			j, err := a.openJournal()
			if err != nil {
				return sysErr("open reminder journal: %w", err)
			}
			if j != nil {
				n := len(j.Pending())
				report.Reminders = &n
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, report)
			}
			fmt.Fprintf(out, "Backend:    %s\n", report.Backend)
			fmt.Fprintf(out, "Data:       %s\n", report.DataDir)
			fmt.Fprintf(out, "Tasks:      %d (%d completed)\n", report.Tasks, report.Completed)
			if report.Reminders != nil {
				fmt.Fprintf(out, "Reminders:  %d pending\n", *report.Reminders)
			} else {
				fmt.Fprintln(out, "Reminders:  journal disabled")
			}
			if report.SavedAt != nil {
				fmt.Fprintf(out, "Last saved: %s\n", report.SavedAt.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Last saved: never")
			}
			return nil
		},
	}
}
