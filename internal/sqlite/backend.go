package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

// FileName is the database file inside the data directory.
const FileName = "taskly.db"

// Compile-time interface checks.
var (
	_ types.Persister = (*Backend)(nil)
	_ types.SaveTimer = (*Backend)(nil)
)

// Backend implements types.Persister on a SQLite database. The database is
// opened lazily on first Save or Load so that an unreadable file degrades to
// an empty snapshot instead of failing construction.
type Backend struct {
	mu     sync.Mutex
	path   string
	db     *sql.DB
	closed bool
	logger *log.Logger
}

// NewBackend returns a backend storing its database in dataDir. The data
// directory is created if needed; the database is not opened yet.
func NewBackend(dataDir string, logger *log.Logger) (*Backend, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Backend{path: filepath.Join(dataDir, FileName), logger: logger}, nil
}

// Path returns the database file location.
func (b *Backend) Path() string { return b.path }

// openLocked opens the database and applies the schema. The caller must
// hold b.mu.
func (b *Backend) openLocked(ctx context.Context) (*sql.DB, error) {
	if b.closed {
		return nil, errors.New("backend is closed")
	}
	if b.db != nil {
		return b.db, nil
	}
	db, err := sql.Open("sqlite", b.path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps the replace transaction and readers on one
	// serialized handle.
	db.SetMaxOpenConns(1)
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}
	b.db = db
	return db, nil
}

// Save replaces every row of the tasks table in one transaction.
func (b *Backend) Save(ctx context.Context, snap types.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.openLocked(ctx)
	if err != nil {
		return fmt.Errorf("opening %s: %w", b.path, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clearing tasks: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO tasks (position, task_id, title, due_date, is_completed, notes) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range snap {
		if _, err := stmt.ExecContext(ctx, i, t.ID, t.Title, dehydrateDue(t.DueDate), boolToInt(t.IsCompleted), dehydrateNotes(t.Notes)); err != nil {
			return fmt.Errorf("inserting task %s: %w", t.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshot_meta (key, value) VALUES ('saved_at', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("recording save time: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshot_meta (key, value) VALUES ('count', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		strconv.Itoa(len(snap)),
	); err != nil {
		return fmt.Errorf("recording task count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Load reads the tasks table in position order. A database that cannot be
// opened or queried returns an empty snapshot and ErrCorruptSnapshot; rows
// that fail to hydrate are skipped with a warning.
func (b *Backend) Load(ctx context.Context) (types.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.openLocked(ctx)
	if err != nil {
		b.quarantineLocked()
		return types.Snapshot{}, fmt.Errorf("%w: opening %s: %v", types.ErrCorruptSnapshot, b.path, err)
	}

	rows, err := db.QueryContext(ctx,
		"SELECT task_id, title, due_date, is_completed, notes FROM tasks ORDER BY position")
	if err != nil {
		b.quarantineLocked()
		return types.Snapshot{}, fmt.Errorf("%w: querying tasks: %v", types.ErrCorruptSnapshot, err)
	}
	defer rows.Close()

	snap := types.Snapshot{}
	seen := map[string]bool{}
	for rows.Next() {
		t, err := hydrateTask(rows)
		if err != nil {
			b.logger.Printf("warning: skipping task row: %v", err)
			continue
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		snap = append(snap, t)
	}
	if err := rows.Err(); err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: reading tasks: %v", types.ErrCorruptSnapshot, err)
	}
	return snap, nil
}

// quarantineLocked moves an unreadable database aside so the next Save
// starts a fresh file. The caller must hold b.mu.
func (b *Backend) quarantineLocked() {
	if b.db != nil {
		b.db.Close()
		b.db = nil
	}
	if _, err := os.Stat(b.path); err != nil {
		return
	}
	aside := fmt.Sprintf("%s.corrupt-%d", b.path, time.Now().UnixNano())
	if err := os.Rename(b.path, aside); err != nil {
		b.logger.Printf("warning: could not move unreadable database aside: %v", err)
		return
	}
	b.logger.Printf("warning: unreadable database moved to %s", aside)
}

// SavedAt returns the time of the last successful Save, or the zero time if
// nothing has been saved.
func (b *Backend) SavedAt(ctx context.Context) (time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.openLocked(ctx)
	if err != nil {
		return time.Time{}, err
	}
	var value string
	err = db.QueryRowContext(ctx, "SELECT value FROM snapshot_meta WHERE key = 'saved_at'").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, value)
}

// Close releases the database handle. Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}
