// Package store owns the ordered task collection. Every mutation runs a pure
// planning step over the current snapshot, then an explicit commit that
// hands the new snapshot to persistence and performs the scheduler effects
// the plan produced.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/taskly/internal/persist"
	"github.com/mesh-intelligence/taskly/internal/view"
	"github.com/mesh-intelligence/taskly/pkg/types"
)

// Options configure a Store. Zero values select the defaults noted on each
// field.
type Options struct {
	Persister types.Persister // nil keeps the store in memory only
	Sync      string          // types.SyncImmediate or types.SyncAsync (default)
	Scheduler types.Scheduler // nil drops reminder requests

	Now      func() time.Time       // default time.Now
	Location *time.Location         // calendar for day comparisons; default time.Local
	Language language.Tag           // title collation; default language.English
	NewID    func() (string, error) // default UUID v7
	Logger   *log.Logger            // default stderr with "taskly: " prefix

	ShowCompleted bool
	Sort          types.SortMode // default types.SortManual

	// OnPersistError, if set, is called for every failed save or load. It
	// never runs while the store is locked, so it may call Store methods.
	OnPersistError func(error)
}

// Store is the single source of truth for one task list. It is safe for
// concurrent use; mutations are applied one at a time.
type Store struct {
	mu    sync.RWMutex
	tasks types.Snapshot

	showCompleted bool
	sort          types.SortMode

	writer    *persist.Writer // nil when there is no persister
	scheduler types.Scheduler
	now       func() time.Time
	loc       *time.Location
	lang      language.Tag
	newID     func() (string, error)
	logger    *log.Logger
	onPersist func(error)
	held      []error // hook calls waiting for s.mu to be released

	errMu   sync.Mutex
	lastErr error
}

// New returns an empty Store. Use Open to start from the persisted
// snapshot.
func New(opts Options) *Store {
	s := &Store{
		tasks:         types.Snapshot{},
		showCompleted: opts.ShowCompleted,
		sort:          opts.Sort,
		scheduler:     opts.Scheduler,
		now:           opts.Now,
		loc:           opts.Location,
		lang:          opts.Language,
		newID:         opts.NewID,
		logger:        opts.Logger,
		onPersist:     opts.OnPersistError,
	}
	if s.sort == "" {
		s.sort = types.SortManual
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.lang == language.Und {
		s.lang = language.English
	}
	if s.newID == nil {
		s.newID = generateID
	}
	if s.logger == nil {
		s.logger = log.New(os.Stderr, "taskly: ", log.LstdFlags)
	}
	if opts.Persister != nil {
		onError := s.reportPersistError
		if opts.Sync == types.SyncImmediate {
			onError = s.holdPersistError
		}
		s.writer = persist.NewWriter(opts.Persister, opts.Sync, onError)
	}
	return s
}

// Open returns a Store holding the snapshot loaded from opts.Persister. A
// missing or unreadable snapshot never fails startup: the store starts
// empty and the condition is logged and kept as LastPersistError.
func Open(ctx context.Context, opts Options) *Store {
	s := New(opts)
	if opts.Persister == nil {
		return s
	}
	snap, err := opts.Persister.Load(ctx)
	if err != nil {
		s.reportPersistError(&types.PersistenceError{Op: "load", Err: err})
		snap = types.Snapshot{}
	}
	if snap == nil {
		snap = types.Snapshot{}
	}
	s.tasks = snap
	return s
}

// generateID returns a new UUID v7, falling back to v4.
func generateID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String(), nil
	}
	return id.String(), nil
}

// reportPersistError records and logs a persistence failure, then runs the
// hook. The caller must not hold s.mu.
func (s *Store) reportPersistError(err error) {
	s.recordPersistError(err)
	if s.onPersist != nil {
		s.onPersist(err)
	}
}

// holdPersistError is reportPersistError for callers holding s.mu: the hook
// runs in unlock.
func (s *Store) holdPersistError(err error) {
	s.recordPersistError(err)
	if s.onPersist != nil {
		s.held = append(s.held, err)
	}
}

func (s *Store) recordPersistError(err error) {
	s.errMu.Lock()
	s.lastErr = err
	s.errMu.Unlock()
	s.logger.Printf("warning: %v", err)
}

// unlock releases s.mu after a mutation and runs the hook for any save
// failure it produced.
func (s *Store) unlock() {
	held := s.held
	s.held = nil
	s.mu.Unlock()
	for _, err := range held {
		s.onPersist(err)
	}
}

// LastPersistError returns the most recent persistence failure. A
// successful immediate save clears it; in async mode use Flush to learn the
// outcome of the latest save.
func (s *Store) LastPersistError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

// commit is the post-mutation hook. The caller must hold s.mu. It installs
// next as the current snapshot, hands it to persistence, then performs the
// scheduler effects. Neither side effect can undo the in-memory change.
func (s *Store) commit(ctx context.Context, next types.Snapshot, effects []Effect) {
	s.tasks = next
	s.persist(ctx)
	s.dispatch(ctx, effects)
}

func (s *Store) persist(ctx context.Context) {
	if s.writer == nil {
		return
	}
	if err := s.writer.Enqueue(ctx, s.tasks); err == nil {
		s.errMu.Lock()
		if s.writer.Strategy() == types.SyncImmediate {
			s.lastErr = nil
		}
		s.errMu.Unlock()
	} else if errors.Is(err, types.ErrWriterClosed) {
		s.holdPersistError(&types.PersistenceError{Op: "save", Err: err})
	}
	// Other errors were already reported through the writer callback.
}

func (s *Store) dispatch(ctx context.Context, effects []Effect) {
	if s.scheduler == nil {
		return
	}
	for _, e := range effects {
		var err error
		switch e.Kind {
		case EffectSchedule:
			err = s.scheduler.Schedule(ctx, e.TaskID, e.Title, e.FireAt)
		case EffectCancel:
			err = s.scheduler.Cancel(ctx, e.TaskID)
		}
		if err != nil {
			s.logger.Printf("warning: %s reminder for task %s: %v", e.Kind, e.TaskID, err)
		}
	}
}

// Create appends a new task. The title is trimmed and must not be empty.
// A reminder is requested when due is in the future.
func (s *Store) Create(ctx context.Context, title string, due *time.Time, notes *string) (types.Task, error) {
	trimmed, err := types.NormalizeTitle(title)
	if err != nil {
		return types.Task{}, err
	}
	id, err := s.newID()
	if err != nil {
		return types.Task{}, fmt.Errorf("generating task id: %w", err)
	}
	t := types.Task{ID: id, Title: trimmed}
	if due != nil {
		d := due.Round(0)
		t.DueDate = &d
	}
	if notes != nil {
		n := *notes
		t.Notes = &n
	}

	s.mu.Lock()
	defer s.unlock()
	if s.tasks.Index(id) >= 0 {
		return types.Task{}, fmt.Errorf("generating task id: duplicate id %s", id)
	}
	next, effects := planCreate(s.tasks, t, s.now())
	s.commit(ctx, next, effects)
	return t.Clone(), nil
}

// Update edits the task with id. Its reminder is always cancelled and
// rescheduled if the resulting due date is in the future.
func (s *Store) Update(ctx context.Context, id string, patch types.TaskPatch) error {
	if patch.SetDue && patch.DueDate != nil {
		d := patch.DueDate.Round(0)
		patch.DueDate = &d
	}

	s.mu.Lock()
	defer s.unlock()
	next, effects, err := planUpdate(s.tasks, id, patch, s.now())
	if err != nil {
		return err
	}
	s.commit(ctx, next, effects)
	return nil
}

// ToggleCompletion flips the completion state of the task with id. Pending
// reminders are not touched.
func (s *Store) ToggleCompletion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.unlock()
	next, err := planToggle(s.tasks, id)
	if err != nil {
		return err
	}
	s.commit(ctx, next, nil)
	return nil
}

// Delete removes every task whose id is listed and cancels their reminders.
// It returns ErrNotFound only when none of the ids exist.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.unlock()
	next, effects, err := planDelete(s.tasks, ids)
	if err != nil {
		return err
	}
	s.commit(ctx, next, effects)
	return nil
}

// DeleteAll removes every task and cancels every reminder.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()
	next, effects := planDeleteAll(s.tasks)
	s.commit(ctx, next, effects)
	return nil
}

// Reorder moves the tasks at positions from to position to in the stored
// (manual) order. Positions refer to the stored order, not to any sorted
// view. Reordering is allowed whatever the active sort mode; it only becomes
// visible under SortManual. An empty from is a no-op.
func (s *Store) Reorder(ctx context.Context, from []int, to int) error {
	s.mu.Lock()
	defer s.unlock()
	if len(from) == 0 {
		return nil
	}
	next, err := planReorder(s.tasks, from, to)
	if err != nil {
		return err
	}
	s.commit(ctx, next, nil)
	return nil
}

// Tasks returns a copy of the stored sequence.
func (s *Store) Tasks() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Clone()
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Get returns the task with id.
func (s *Store) Get(id string) (types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.tasks.Index(id)
	if i < 0 {
		return types.Task{}, types.ErrNotFound
	}
	return s.tasks[i].Clone(), nil
}

// ShowCompleted reports whether grouped views include completed tasks.
func (s *Store) ShowCompleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showCompleted
}

// SetShowCompleted changes the completion visibility used by GroupedTasks.
func (s *Store) SetShowCompleted(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showCompleted = show
}

// SortMode returns the active sort mode.
func (s *Store) SortMode() types.SortMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sort
}

// SetSort changes the active sort mode.
func (s *Store) SetSort(mode types.SortMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidSortMode, mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = mode
	return nil
}

// Env returns the evaluation context views use at this moment.
func (s *Store) Env() view.Env {
	return view.Env{Now: s.now(), Location: s.loc, Language: s.lang}
}

// View runs q against the current snapshot.
func (s *Store) View(q view.Query) []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view.Derive(s.tasks.Clone(), q, s.Env())
}

// FilteredTasks returns the tasks passing the completion, date, and search
// filters, ordered by the active sort mode.
func (s *Store) FilteredTasks(showCompleted bool, date *time.Time, search string) []types.Task {
	s.mu.RLock()
	q := view.Query{ShowCompleted: showCompleted, Date: date, Search: search, Sort: s.sort}
	s.mu.RUnlock()
	return s.View(q)
}

// GroupedTasks partitions the filtered tasks into sections using the
// store's completion visibility and sort mode.
func (s *Store) GroupedTasks(date *time.Time, search string) view.Groups {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := view.Query{ShowCompleted: s.showCompleted, Date: date, Search: search, Sort: s.sort}
	return view.DeriveGroups(s.tasks.Clone(), q, s.Env())
}

// Week returns the seven days (Monday first) of the week containing ref
// and the number of tasks due on each, keyed by YYYY-MM-DD.
func (s *Store) Week(ref time.Time) ([]time.Time, map[string]int) {
	days := view.Week(ref, s.loc)
	return days, s.CountsByDay(days)
}

// CountsByDay counts the tasks due on each of days, keyed by YYYY-MM-DD.
func (s *Store) CountsByDay(days []time.Time) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view.CountByDay(s.tasks, days, s.loc)
}

// Location returns the calendar used for day comparisons.
func (s *Store) Location() *time.Location { return s.loc }

// Flush waits for outstanding saves and returns the result of the latest
// one.
func (s *Store) Flush(ctx context.Context) error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Flush(ctx)
}

// Close flushes outstanding saves and closes the persister. The error, if
// any, is the result of the final save.
func (s *Store) Close(ctx context.Context) error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close(ctx)
}
