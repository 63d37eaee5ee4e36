// Package cli implements the taskly command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskly/internal/notify"
	"github.com/mesh-intelligence/taskly/internal/paths"
	"github.com/mesh-intelligence/taskly/internal/store"
	"github.com/mesh-intelligence/taskly/internal/view"
	"github.com/mesh-intelligence/taskly/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// systemError marks failures of the environment (file system, storage)
// rather than of the user's input.
type systemError struct{ err error }

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

func sysErr(format string, args ...any) error {
	return &systemError{err: fmt.Errorf(format, args...)}
}

// exitCode maps a command error onto a process exit code.
func exitCode(err error) int {
	var se *systemError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &se), errors.Is(err, types.ErrPersistence):
		return exitSysError
	default:
		return exitUserError
	}
}

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app carries the state shared by one invocation's commands.
type app struct {
	flags rootFlags

	stderr io.Writer
	logger *log.Logger
	now    func() time.Time
	loc    *time.Location

	configDir string
	dataDir   string
	cfg       types.Config

	store   *store.Store
	journal *notify.Journal
}

func newApp(stderr io.Writer) *app {
	return &app{
		stderr: stderr,
		logger: log.New(stderr, "taskly: ", 0),
		now:    time.Now,
		loc:    time.Local,
	}
}

// NewRootCmd creates the top-level "taskly" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newApp(os.Stderr).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskly",
		Short: "A personal task tracker",
		Long: "Taskly keeps an ordered list of tasks with optional due dates and notes,\n" +
			"groups them into Overdue, Today, Upcoming, and No Due Date, and\n" +
			"requests reminders for tasks due in the future.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.configure()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/taskly)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/taskly)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newAddCmd(),
		a.newEditCmd(),
		a.newDoneCmd(),
		a.newRmCmd(),
		a.newClearCmd(),
		a.newMoveCmd(),
		a.newListCmd(),
		a.newWeekCmd(),
		a.newRemindersCmd(),
		a.newStatusCmd(),
		a.newServeCmd(),
	)
	return root
}

// Execute runs the CLI with the process arguments and exits with the
// appropriate code.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes one invocation and returns its exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return newApp(stderr).run(ctx, args, stdout)
}

func (a *app) run(ctx context.Context, args []string, stdout io.Writer) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if closeErr := a.close(ctx); closeErr != nil && err == nil {
		err = sysErr("saving tasks: %w", closeErr)
	}
	if err != nil {
		fmt.Fprintln(a.stderr, "error:", err)
	}
	return exitCode(err)
}

// configure resolves directories and loads config.yaml.
func (a *app) configure() error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return sysErr("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir

	a.configDir = configDir
	a.dataDir = dataDir
	a.cfg = cfg
	return nil
}

// close flushes and releases the store if a command opened one.
func (a *app) close(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close(ctx)
	a.store = nil
	return err
}

// parseDate parses a date flag or argument in the local calendar.
func (a *app) parseDate(s string) (time.Time, error) {
	return view.ParseDate(s, a.now(), a.loc)
}
