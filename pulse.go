//go:build !pulse_off

package pulse

import (
	"context"
	"fmt"

	"github.com/archlens/pulse/buildmode"
	"github.com/archlens/pulse/contract"
	"github.com/archlens/pulse/internal/pulseobs"
	"github.com/archlens/pulse/lifecycle"
	"github.com/archlens/pulse/profiler"
	"github.com/archlens/pulse/sink"
)

// Guard is a scoped contract check returned by Invariant/Ensure; see
// contract.Guard for the full Release semantics.
type Guard = contract.Guard

// Library is one installed instance of pulse, owning the process-wide
// aggregation map, sink pipeline, and self-telemetry. Most hosts install
// exactly one Library for the life of the process.
type Library struct {
	process *lifecycle.Process
}

// Install constructs a Library from cfg: it builds the sink pipeline
// from cfg.Sinks, initializes self-telemetry, and wires both into a
// process-wide lifecycle.Process. An invalid Mode or a sink/telemetry
// construction failure is returned as an error; the host should not
// proceed with instrumentation in that case.
func Install(cfg Config) (*Library, error) {
	if !buildmode.Valid(cfg.Mode) {
		return nil, fmt.Errorf("pulse: invalid build mode %q", cfg.Mode)
	}

	pipeline := sink.New()
	if err := sink.BuildAll(pipeline, cfg.Sinks); err != nil {
		return nil, fmt.Errorf("pulse: install: %w", err)
	}

	process := lifecycle.NewProcess(cfg.Mode, pipeline, nil, pulseobs.Config{})

	gauges := pulseobs.Gauges{
		AggregationMapSize: func() int64 { return int64(process.Aggregator().Len()) },
		SinkWriteFailures:  func() int64 { return int64(pipeline.Failures()) },
		SnapshotSkew:       func() int64 { return int64(process.SkewCount()) },
		LifecycleMisuse:    func() int64 { return int64(process.MisuseCount()) },
	}

	obs, err := pulseobs.Init(cfg.Observability, cfg.Mode, gauges)
	if err != nil {
		return nil, fmt.Errorf("pulse: install: %w", err)
	}

	process.AttachObservability(obs, cfg.Observability)

	return &Library{process: process}, nil
}

// Shutdown releases a Library: it requires every acquired Thread to have
// already been released (a non-zero count is recorded as lifecycle
// misuse rather than blocking), emits final aggregates, drains the sink
// pipeline, and flushes self-telemetry.
func (l *Library) Shutdown(ctx context.Context) error {
	return l.process.Shutdown(ctx)
}

// Aggregator exposes the process-wide aggregation map directly, e.g. for
// a host that wants to render a report without waiting for Shutdown.
func (l *Library) Aggregator() *profiler.Aggregator {
	return l.process.Aggregator()
}

// Thread is a per-thread (or long-lived goroutine) acquisition from a
// Library: its own PlatformCounter and ScopeTracker. Acquire one per OS
// thread or worker goroutine and Release it on that same thread's exit.
type Thread struct {
	handle *lifecycle.Thread
}

// AcquireThread opens a PlatformCounter and ScopeTracker for the calling
// thread. The returned Thread must be released by the same thread that
// acquired it.
func (l *Library) AcquireThread(ctx context.Context) *Thread {
	return &Thread{handle: l.process.AcquireThread(ctx)}
}

// Release closes the thread's PlatformCounter and folds its self-
// telemetry counters into the owning Library. Idempotent.
func (t *Thread) Release() error {
	return t.handle.Release()
}

// Function wraps a named subsystem/session scope around the call site.
// The usual shape is:
//
//	defer thread.Function("io", "", 1)()
//
// subsystem and session may be empty to inherit the thread's current
// values. The returned function ends the scope and must be deferred
// immediately.
func (t *Thread) Function(subsystem, session string, workload float64) func() {
	loc := captureProfilerLocation(2)
	t.handle.Tracker().Begin(subsystem, session, workload, loc)

	return func() { _, _ = t.handle.Tracker().End() }
}

// Block wraps an inline sub-scope within the enclosing Function, tagged
// with name for the call site's own function signature. subsystem and
// session are always inherited from the enclosing scope.
//
//	defer thread.Block("decode", 1)()
func (t *Thread) Block(name string, workload float64) func() {
	loc := captureProfilerLocation(2)
	if name != "" {
		loc.Function += "::" + name
	}

	t.handle.Tracker().Begin("", "", workload, loc)

	return func() { _, _ = t.handle.Tracker().End() }
}

// Argument checks a precondition on inputs (§4.6's "argument" check).
func (l *Library) Argument(cond bool, format string, args ...any) error {
	return l.process.ContractContext().Argument(cond, captureContractLocation(2), format, args...)
}

// Expect checks a precondition on collaborator state.
func (l *Library) Expect(cond bool, format string, args ...any) error {
	return l.process.ContractContext().Expect(cond, captureContractLocation(2), format, args...)
}

// Confirm asserts a condition mid-body.
func (l *Library) Confirm(cond bool, format string, args ...any) error {
	return l.process.ContractContext().Confirm(cond, captureContractLocation(2), format, args...)
}

// Invariant constructs a Guard checked now and again on Release.
func (l *Library) Invariant(predicate func() bool) (*Guard, error) {
	return l.process.ContractContext().Invariant(predicate, captureContractLocation(2))
}

// Ensure constructs a Guard checked only on Release.
func (l *Library) Ensure(predicate func() bool) *Guard {
	return l.process.ContractContext().Ensure(predicate, captureContractLocation(2))
}
