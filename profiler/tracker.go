package profiler

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/archlens/pulse/counter"
)

// ErrUnbalancedEnd is the lifecycle_misuse condition from spec.md §7: a
// scope exit was observed on a Tracker with no active frame to pop. It
// is recorded and execution continues with best effort — callers must
// not propagate it into the host application's control flow.
var ErrUnbalancedEnd = errors.New("profiler: scope exit observed without a matching entry")

// activeFrame pairs a Frame with the wall-clock instant it was entered,
// since wall-duration is measured independently of the kernel counters
// (there is no software counter that reports true wall time).
type activeFrame struct {
	frame     Frame
	startWall time.Time
}

// Tracker implements the per-thread nested-scope state machine from
// §4.7: a LIFO stack of active scopes plus the thread's current
// subsystem/session override stacks, folding total/self counter deltas
// into a process-wide Aggregator keyed by (parent, function) signature.
//
// Tracker is exclusive to one thread — per §5, per-thread structures
// are never shared and never need synchronization — so it carries no
// mutex of its own. The PlatformCounter it reads from must likewise be
// bound to that same thread.
type Tracker struct {
	provider   counter.Provider
	aggregator *Aggregator

	stack          []*activeFrame
	subsystemStack []string
	sessionStack   []string

	skewCount    atomic.Uint64
	misuseCount  atomic.Uint64
	wallClockNow func() time.Time
}

// NewTracker returns a Tracker reading from provider and folding
// observations into aggregator.
func NewTracker(provider counter.Provider, aggregator *Aggregator) *Tracker {
	return &Tracker{provider: provider, aggregator: aggregator, wallClockNow: time.Now}
}

// Begin implements scope entry (§4.7): it snapshots the thread's
// counters, composes parent_signature from the current top frame (empty
// for an outermost scope), and pushes a new Frame. subsystem/session
// are pushed onto their own stacks only when non-empty, so a nested
// scope that omits them inherits its parent's current value via
// CurrentSubsystem/CurrentSession.
func (t *Tracker) Begin(subsystem, session string, workload float64, loc Location) {
	snap, _ := t.provider.Snapshot()

	parent := ""
	if len(t.stack) > 0 {
		parent = t.stack[len(t.stack)-1].frame.Signature()
	}

	f := Frame{
		Subsystem:       subsystem,
		Session:         session,
		Workload:        workload,
		Location:        loc,
		ParentSignature: parent,
		EntrySnapshot:   snap,
	}

	t.stack = append(t.stack, &activeFrame{frame: f, startWall: t.now()})

	if subsystem != "" {
		t.subsystemStack = append(t.subsystemStack, subsystem)
	}

	if session != "" {
		t.sessionStack = append(t.sessionStack, session)
	}
}

// Result is what Tracker.End reports about the scope that just exited,
// for callers (e.g. the root pulse package) that want to tag subsequent
// records or contract checks with it.
type Result struct {
	Key            Key
	InclusiveDelta counter.Snapshot
	ExclusiveDelta counter.Snapshot
	WallNs         uint64
	CPUNs          uint64
}

// End implements scope exit (§4.7): it takes the exit snapshot, computes
// the inclusive delta against the popped frame's entry snapshot,
// subtracts the frame's accumulated children to get the exclusive
// delta, folds both into the Aggregator under (parent, own) key, and —
// if a new top frame exists — adds the inclusive delta into that
// frame's children_inclusive_accum so its own eventual exclusive
// computation stays correct.
//
// Calling End with no active frame is the lifecycle_misuse condition:
// it is counted (see MisuseCount) and ErrUnbalancedEnd is returned, but
// the Tracker's state is left untouched rather than panicking.
func (t *Tracker) End() (Result, error) {
	if len(t.stack) == 0 {
		t.misuseCount.Add(1)

		return Result{}, ErrUnbalancedEnd
	}

	last := len(t.stack) - 1
	active := t.stack[last]
	t.stack = t.stack[:last]

	exitSnap, _ := t.provider.Snapshot()

	inclusive, err := exitSnap.Sub(active.frame.EntrySnapshot)
	if err != nil {
		t.skewCount.Add(1)
	}

	exclusive, err := inclusive.Sub(active.frame.ChildrenInclusiveAccum)
	if err != nil {
		t.skewCount.Add(1)
	}

	wallNs := uint64(t.now().Sub(active.startWall).Nanoseconds())
	cpuNs, _ := inclusive.Value(counter.TaskClock)

	key := Key{ParentSignature: active.frame.ParentSignature, FunctionSignature: active.frame.Signature()}

	t.aggregator.Record(key, active.frame.Workload, inclusive, exclusive, wallNs, cpuNs)

	if len(t.stack) > 0 {
		parent := t.stack[len(t.stack)-1]
		parent.frame.ChildrenInclusiveAccum = parent.frame.ChildrenInclusiveAccum.Add(inclusive)
	}

	if active.frame.Subsystem != "" && len(t.subsystemStack) > 0 {
		t.subsystemStack = t.subsystemStack[:len(t.subsystemStack)-1]
	}

	if active.frame.Session != "" && len(t.sessionStack) > 0 {
		t.sessionStack = t.sessionStack[:len(t.sessionStack)-1]
	}

	return Result{Key: key, InclusiveDelta: inclusive, ExclusiveDelta: exclusive, WallNs: wallNs, CPUNs: cpuNs}, nil
}

// Depth reports the number of active (unclosed) scopes on this thread,
// used to check the "scope stack is empty at thread shutdown" testable
// property from §8.
func (t *Tracker) Depth() int { return len(t.stack) }

// CurrentSubsystem returns the innermost active subsystem tag, or "" if
// none is set.
func (t *Tracker) CurrentSubsystem() string {
	if len(t.subsystemStack) == 0 {
		return ""
	}

	return t.subsystemStack[len(t.subsystemStack)-1]
}

// CurrentSession returns the innermost active session tag, or "" if
// none is set.
func (t *Tracker) CurrentSession() string {
	if len(t.sessionStack) == 0 {
		return ""
	}

	return t.sessionStack[len(t.sessionStack)-1]
}

// SkewCount returns the cumulative number of snapshot_skew occurrences
// observed by this Tracker (§7), for self-telemetry.
func (t *Tracker) SkewCount() uint64 { return t.skewCount.Load() }

// MisuseCount returns the cumulative number of lifecycle_misuse
// occurrences (unbalanced End calls) observed by this Tracker.
func (t *Tracker) MisuseCount() uint64 { return t.misuseCount.Load() }

func (t *Tracker) now() time.Time {
	if t.wallClockNow != nil {
		return t.wallClockNow()
	}

	return time.Now()
}
