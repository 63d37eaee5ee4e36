package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

// FileName is the snapshot document inside the data directory.
const FileName = "tasks.json"

var (
	_ types.Persister = (*Persister)(nil)
	_ types.SaveTimer = (*Persister)(nil)
)

// Persister stores the snapshot as a JSON array in tasks.json.
type Persister struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
}

// New returns a Persister rooted at dataDir, creating the directory if
// needed. A nil logger discards warnings.
func New(dataDir string, logger *log.Logger) (*Persister, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Persister{path: filepath.Join(dataDir, FileName), logger: logger}, nil
}

// Path returns the location of the snapshot document.
func (p *Persister) Path() string { return p.path }

// Save writes the whole snapshot atomically.
func (p *Persister) Save(ctx context.Context, snap types.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap.Clone(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	data = append(data, '\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := WriteAtomic(p.path, data); err != nil {
		return fmt.Errorf("writing %s: %w", p.path, err)
	}
	return nil
}

// SavedAt returns the modification time of tasks.json, or the zero time if
// it does not exist.
func (p *Persister) SavedAt(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	info, err := os.Stat(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Load reads tasks.json. A missing or blank file is an empty snapshot. A
// document that is not a JSON array returns an empty snapshot and
// ErrCorruptSnapshot. Individual records without an id or title, and
// repeated ids, are dropped with a warning.
func (p *Persister) Load(ctx context.Context) (types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return types.Snapshot{}, err
	}
	p.mu.Lock()
	data, err := os.ReadFile(p.path)
	p.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.Snapshot{}, nil
		}
		return types.Snapshot{}, fmt.Errorf("%w: reading %s: %v", types.ErrCorruptSnapshot, p.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return types.Snapshot{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: decoding %s: %v", types.ErrCorruptSnapshot, p.path, err)
	}
	return decodeRecords(raw, p.logger), nil
}

// decodeRecords converts raw task records, skipping any that cannot form a
// valid task.
func decodeRecords(raw []json.RawMessage, logger *log.Logger) types.Snapshot {
	snap := make(types.Snapshot, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, rec := range raw {
		var t types.Task
		if err := json.Unmarshal(rec, &t); err != nil {
			logger.Printf("warning: skipping task record %d: %v", i, err)
			continue
		}
		if t.ID == "" || strings.TrimSpace(t.Title) == "" {
			logger.Printf("warning: skipping task record %d: missing id or title", i)
			continue
		}
		if seen[t.ID] {
			logger.Printf("warning: skipping task record %d: duplicate id %s", i, t.ID)
			continue
		}
		seen[t.ID] = true
		snap = append(snap, t)
	}
	return snap
}

// Close is a no-op; the file is opened per operation.
func (p *Persister) Close() error { return nil }
