// Package persist serializes snapshot saves so that the stored snapshot
// always reflects the most recent mutation.
//
// Two sync strategies are supported. "immediate" saves inside Enqueue and
// returns the error. "async" hands the snapshot to a single background
// writer; a snapshot that has not started writing yet is replaced by the
// next one, so an older snapshot can never land after a newer one.
package persist

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/taskly/pkg/types"
)

// Writer owns all Save calls against one Persister.
type Writer struct {
	persister types.Persister
	strategy  string
	onError   func(error)

	saveMu sync.Mutex // serializes Save calls in immediate mode

	mu       sync.Mutex
	pending  types.Snapshot // latest snapshot not yet handed to Save
	queued   bool
	enqueued uint64        // generation of the latest Enqueue
	written  uint64        // generation of the latest completed Save
	lastErr  error         // result of the latest completed Save
	progress chan struct{} // closed and replaced after each Save
	closed   bool

	closeOnce sync.Once
	closeErr  error

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewWriter returns a Writer for p using the given sync strategy (see
// types.SyncImmediate, types.SyncAsync; empty means async). onError, if not
// nil, receives every failed save as a *types.PersistenceError.
func NewWriter(p types.Persister, strategy string, onError func(error)) *Writer {
	if strategy == "" {
		strategy = types.SyncAsync
	}
	if onError == nil {
		onError = func(error) {}
	}
	w := &Writer{
		persister: p,
		strategy:  strategy,
		onError:   onError,
		progress:  make(chan struct{}),
		kick:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	if w.async() {
		go w.run()
	} else {
		close(w.done)
	}
	return w
}

func (w *Writer) async() bool {
	return w.strategy != types.SyncImmediate
}

// Strategy returns the effective sync strategy.
func (w *Writer) Strategy() string { return w.strategy }

// Enqueue schedules snap to be saved. The caller must not modify snap
// afterwards. In immediate mode the save happens before Enqueue returns and
// its error is returned; in async mode Enqueue never blocks on I/O and
// returns nil unless the writer is closed.
func (w *Writer) Enqueue(ctx context.Context, snap types.Snapshot) error {
	if !w.async() {
		return w.saveNow(ctx, snap)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return types.ErrWriterClosed
	}
	w.enqueued++
	w.pending = snap
	w.queued = true
	w.mu.Unlock()

	select {
	case w.kick <- struct{}{}:
	default:
	}
	return nil
}

// saveNow is Enqueue for immediate mode. Holding saveMu while taking the
// generation keeps generation order and write order identical.
func (w *Writer) saveNow(ctx context.Context, snap types.Snapshot) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return types.ErrWriterClosed
	}
	w.enqueued++
	gen := w.enqueued
	w.mu.Unlock()

	err := w.save(ctx, snap)
	w.finish(gen, err)
	return err
}

// save runs one Save and wraps its error.
func (w *Writer) save(ctx context.Context, snap types.Snapshot) error {
	if err := w.persister.Save(ctx, snap); err != nil {
		perr := &types.PersistenceError{Op: "save", Err: err}
		w.onError(perr)
		return perr
	}
	return nil
}

// finish records the completion of generation gen and wakes Flush callers.
func (w *Writer) finish(gen uint64, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen > w.written {
		w.written = gen
		w.lastErr = err
	}
	close(w.progress)
	w.progress = make(chan struct{})
}

// run is the background writer loop for async mode.
func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.kick:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

// drain saves the latest pending snapshot until nothing is pending.
func (w *Writer) drain() {
	for {
		w.mu.Lock()
		if !w.queued {
			w.mu.Unlock()
			return
		}
		snap := w.pending
		gen := w.enqueued
		w.pending = nil
		w.queued = false
		w.mu.Unlock()

		// Saves started here are not tied to any caller's context.
		err := w.save(context.Background(), snap)
		w.finish(gen, err)
	}
}

// Flush waits until every snapshot enqueued before the call has been
// written, then returns the error of the most recent save (nil if it
// succeeded).
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.enqueued
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if w.written >= target {
			err := w.lastErr
			w.mu.Unlock()
			return err
		}
		ch := w.progress
		w.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close flushes outstanding writes, stops the background writer, and
// closes the Persister. Idempotent; later Enqueue calls return
// ErrWriterClosed.
func (w *Writer) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		flushErr := w.Flush(ctx)

		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		if w.async() {
			close(w.stop)
		}
		<-w.done

		w.closeErr = flushErr
		if err := w.persister.Close(); err != nil && flushErr == nil {
			w.closeErr = err
		}
	})
	return w.closeErr
}
