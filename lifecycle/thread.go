package lifecycle

import (
	"fmt"
	"sync/atomic"

	"github.com/archlens/pulse/counter"
	"github.com/archlens/pulse/profiler"
)

// Thread is the per-thread acquisition from §4.8: a PlatformCounter
// bound to the calling thread, a monotonic 1-based ordinal, and the
// ScopeTracker that folds this thread's scope observations into the
// process's aggregation map. Thread is never shared across threads and
// carries no synchronization of its own, per §5.
type Thread struct {
	process  *Process
	ordinal  int64
	provider counter.Provider
	tracker  *profiler.Tracker
	released atomic.Bool
}

// Ordinal returns this thread's 1-based acquisition order.
func (t *Thread) Ordinal() int64 { return t.ordinal }

// Tracker returns the thread's ScopeTracker, the entry point for scope
// begin/end.
func (t *Thread) Tracker() *profiler.Tracker { return t.tracker }

// Release performs the per-thread release from §4.8: it decrements the
// process's active-thread count and closes the PlatformCounter. Release
// is idempotent; a second call is a no-op.
func (t *Thread) Release() error {
	if !t.released.CompareAndSwap(false, true) {
		return nil
	}

	t.process.activeThreads.Add(-1)
	t.process.foldThreadTelemetry(t.tracker.SkewCount(), t.tracker.MisuseCount())

	if err := t.provider.Close(); err != nil {
		return fmt.Errorf("lifecycle: release thread %d: %w", t.ordinal, err)
	}

	return nil
}
