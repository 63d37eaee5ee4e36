package notify

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/mesh-intelligence/taskly/internal/jsonfile"
)

// JournalFileName is the journal document inside the data directory.
const JournalFileName = "reminders.jsonl"

// Journal is a durable Scheduler holding at most one pending reminder per
// task id. Every change rewrites reminders.jsonl atomically.
type Journal struct {
	mu      sync.Mutex
	path    string
	now     func() time.Time
	logger  *log.Logger
	pending map[string]Reminder
}

// OpenJournal loads the journal in dataDir, creating the directory if
// needed. Malformed lines are skipped with a warning. now defaults to
// time.Now and a nil logger discards warnings.
func OpenJournal(dataDir string, now func() time.Time, logger *log.Logger) (*Journal, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	j := &Journal{
		path:    filepath.Join(dataDir, JournalFileName),
		now:     now,
		logger:  logger,
		pending: map[string]Reminder{},
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string { return j.path }

func (j *Journal) load() error {
	records, skipped, err := jsonfile.ReadJSONL(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading reminder journal: %w", err)
	}
	if skipped > 0 {
		j.logger.Printf("warning: skipped %d malformed lines in %s", skipped, j.path)
	}
	for _, raw := range records {
		var r Reminder
		if err := json.Unmarshal(raw, &r); err != nil || r.TaskID == "" {
			j.logger.Printf("warning: skipping invalid reminder record in %s", j.path)
			continue
		}
		j.pending[r.TaskID] = r
	}
	return nil
}

// Schedule implements types.Scheduler. A reminder already pending for
// taskID is replaced.
func (j *Journal) Schedule(ctx context.Context, taskID, title string, fireAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkFuture(fireAt, j.now()); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	prev, had := j.pending[taskID]
	j.pending[taskID] = NewReminder(taskID, title, fireAt)
	if err := j.writeLocked(); err != nil {
		if had {
			j.pending[taskID] = prev
		} else {
			delete(j.pending, taskID)
		}
		return err
	}
	return nil
}

// Cancel implements types.Scheduler. Cancelling an unknown id is a no-op.
func (j *Journal) Cancel(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	prev, had := j.pending[taskID]
	if !had {
		return nil
	}
	delete(j.pending, taskID)
	if err := j.writeLocked(); err != nil {
		j.pending[taskID] = prev
		return err
	}
	return nil
}

// Pending returns every pending reminder ordered by fire time.
func (j *Journal) Pending() []Reminder {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sortedLocked()
}

// Due returns the pending reminders whose fire time is not after now.
func (j *Journal) Due(now time.Time) []Reminder {
	var due []Reminder
	for _, r := range j.Pending() {
		if r.FireAt.After(now) {
			break
		}
		due = append(due, r)
	}
	return due
}

func (j *Journal) sortedLocked() []Reminder {
	out := make([]Reminder, 0, len(j.pending))
	for _, r := range j.pending {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Reminder) int {
		if c := a.FireAt.Compare(b.FireAt); c != 0 {
			return c
		}
		return cmp.Compare(a.TaskID, b.TaskID)
	})
	return out
}

func (j *Journal) writeLocked() error {
	sorted := j.sortedLocked()
	records := make([]json.RawMessage, 0, len(sorted))
	for _, r := range sorted {
		raw, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding reminder %s: %w", r.TaskID, err)
		}
		records = append(records, raw)
	}
	if err := jsonfile.WriteJSONL(j.path, records); err != nil {
		return fmt.Errorf("writing reminder journal: %w", err)
	}
	return nil
}
