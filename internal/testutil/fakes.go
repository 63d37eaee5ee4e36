// Package testutil provides recording fakes for the Persister and Scheduler
// contracts and a controllable clock.
package testutil

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

// Call kinds recorded by Recorder.
const (
	CallSchedule = "schedule"
	CallCancel   = "cancel"
)

// Call is one request received by a Recorder.
type Call struct {
	Kind   string
	TaskID string
	Title  string
	FireAt time.Time
}

// Recorder is an in-memory Scheduler that records every request.
type Recorder struct {
	mu    sync.Mutex
	calls []Call

	// Error injection for testing
	ScheduleErr error
	CancelErr   error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Schedule implements types.Scheduler.
func (r *Recorder) Schedule(ctx context.Context, taskID, title string, fireAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Kind: CallSchedule, TaskID: taskID, Title: title, FireAt: fireAt})
	return r.ScheduleErr
}

// Cancel implements types.Scheduler.
func (r *Recorder) Cancel(ctx context.Context, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Kind: CallCancel, TaskID: taskID})
	return r.CancelErr
}

// Calls returns a copy of all recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many calls of the given kind were recorded.
func (r *Recorder) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// MemoryPersister is an in-memory Persister that keeps every saved
// snapshot.
type MemoryPersister struct {
	mu      sync.Mutex
	saves   []types.Snapshot
	initial types.Snapshot
	closed  bool

	// Error injection for testing
	SaveErr error
	LoadErr error

	// Gate, if set, blocks each Save until a value is received.
	Gate chan struct{}
}

// NewMemoryPersister returns a persister whose Load yields initial.
func NewMemoryPersister(initial types.Snapshot) *MemoryPersister {
	return &MemoryPersister{initial: initial.Clone()}
}

// Save implements types.Persister.
func (m *MemoryPersister) Save(ctx context.Context, snap types.Snapshot) error {
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.saves = append(m.saves, snap.Clone())
	return nil
}

// Load implements types.Persister.
func (m *MemoryPersister) Load(ctx context.Context) (types.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return types.Snapshot{}, m.LoadErr
	}
	if n := len(m.saves); n > 0 {
		return m.saves[n-1].Clone(), nil
	}
	return m.initial.Clone(), nil
}

// Close implements types.Persister.
func (m *MemoryPersister) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Saves returns every snapshot saved so far, oldest first.
func (m *MemoryPersister) Saves() []types.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Snapshot, len(m.saves))
	for i, s := range m.saves {
		out[i] = s.Clone()
	}
	return out
}

// Last returns the most recent saved snapshot and whether there is one.
func (m *MemoryPersister) Last() (types.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saves) == 0 {
		return nil, false
	}
	return m.saves[len(m.saves)-1].Clone(), true
}

// SetSaveErr changes the injected save error under the lock.
func (m *MemoryPersister) SetSaveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveErr = err
}

// Closed reports whether Close was called.
func (m *MemoryPersister) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock reading t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() (string, error) {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n), nil
	}
}
