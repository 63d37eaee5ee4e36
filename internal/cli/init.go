package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskly/internal/paths"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize taskly storage",
		Long:  "Create the configuration and data directories, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
				return sysErr("create data directory: %w", err)
			}

			// Loading and saving back creates the backend file without
			// touching existing tasks. An unreadable snapshot is left alone.
			p, err := a.newPersister()
			if err != nil {
				return sysErr("open %s backend: %w", a.cfg.Backend, err)
			}
			defer p.Close()
			snap, err := p.Load(cmd.Context())
			if err != nil {
				return sysErr("initialize storage: %w", err)
			}
			if err := p.Save(cmd.Context(), snap); err != nil {
				return sysErr("initialize storage: %w", err)
			}
			if _, err := a.openJournal(); err != nil {
				return sysErr("open reminder journal: %w", err)
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, map[string]any{
					"config":  paths.ConfigFile(a.configDir),
					"dataDir": a.dataDir,
					"backend": a.cfg.Backend,
					"tasks":   len(snap),
				})
			}
			fmt.Fprintf(out, "Config:  %s\n", paths.ConfigFile(a.configDir))
			fmt.Fprintf(out, "Data:    %s (%s backend, %d tasks)\n", a.dataDir, a.cfg.Backend, len(snap))
			fmt.Fprintln(out, "Taskly initialized successfully")
			return nil
		},
	}
}
