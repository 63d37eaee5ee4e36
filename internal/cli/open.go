package cli

import (
	"context"
	"strings"

	"golang.org/x/text/language"

	"github.com/mesh-intelligence/taskly/internal/jsonfile"
	"github.com/mesh-intelligence/taskly/internal/notify"
	"github.com/mesh-intelligence/taskly/internal/store"
	"github.com/mesh-intelligence/taskly/pkg/sqlite"
	"github.com/mesh-intelligence/taskly/pkg/types"
)

// newPersister returns the snapshot backend named by the config.
func (a *app) newPersister() (types.Persister, error) {
	switch a.cfg.Backend {
	case types.BackendSQLite:
		return sqlite.NewPersister(a.dataDir, a.logger)
	default:
		return jsonfile.New(a.dataDir, a.logger)
	}
}

// openJournal opens the reminder journal when it is enabled.
func (a *app) openJournal() (*notify.Journal, error) {
	if a.journal != nil || !a.cfg.Reminders.Enabled || !a.cfg.Reminders.Journal {
		return a.journal, nil
	}
	j, err := notify.OpenJournal(a.dataDir, a.now, a.logger)
	if err != nil {
		return nil, err
	}
	a.journal = j
	return j, nil
}

// newScheduler builds the reminder scheduler from the config.
func (a *app) newScheduler(logRequests bool) (types.Scheduler, error) {
	if !a.cfg.Reminders.Enabled {
		return notify.Nop{}, nil
	}
	var out notify.Multi
	j, err := a.openJournal()
	if err != nil {
		return nil, err
	}
	if j != nil {
		out = append(out, j)
	}
	if logRequests {
		out = append(out, notify.NewLogger(a.logger))
	}
	if len(out) == 0 {
		return notify.Nop{}, nil
	}
	return out, nil
}

// language parses the configured collation language, falling back to
// English.
func (a *app) language() language.Tag {
	tag, err := language.Parse(strings.TrimSpace(a.cfg.Language))
	if err != nil {
		a.logger.Printf("warning: unknown language %q, using %s", a.cfg.Language, language.English)
		return language.English
	}
	return tag
}

// openStore opens the store for this invocation. sync overrides the
// configured strategy when non-empty.
func (a *app) openStore(ctx context.Context, sync string, logReminders bool) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	p, err := a.newPersister()
	if err != nil {
		return nil, sysErr("open %s backend: %w", a.cfg.Backend, err)
	}
	sched, err := a.newScheduler(logReminders)
	if err != nil {
		return nil, sysErr("open reminder journal: %w", err)
	}
	if sync == "" {
		sync = a.cfg.SyncStrategy()
	}
	sort, _ := types.ParseSortMode(a.cfg.Sort)

	a.store = store.Open(ctx, store.Options{
		Persister:     p,
		Sync:          sync,
		Scheduler:     sched,
		Now:           a.now,
		Location:      a.loc,
		Language:      a.language(),
		Logger:        a.logger,
		ShowCompleted: a.cfg.ShowCompleted,
		Sort:          sort,
	})
	return a.store, nil
}

// mutableStore opens the store for a one-shot mutating command. Saves run
// immediately so a failure is reported with a system exit code.
func (a *app) mutableStore(ctx context.Context) (*store.Store, error) {
	return a.openStore(ctx, types.SyncImmediate, false)
}
