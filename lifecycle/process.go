// Package lifecycle implements the process- and thread-scoped
// acquisition/release machinery from spec.md §4.8: a single process-wide
// acquisition that installs default sinks and the aggregation map, and a
// per-thread acquisition that allocates a thread's PlatformCounter and
// ScopeTracker when AcquireThread is called. Instrumentation calls do not
// acquire a thread implicitly.
//
// Go has no stable, directly observable OS-thread or goroutine identity
// API (an open question spec.md §9 leaves to the implementer). Rather
// than fake one with a goroutine-ID hack, Thread is an explicit handle:
// callers acquire one per OS thread or long-lived goroutine and release
// it on that same thread's exit, mirroring how a native caller would
// bind a PlatformCounter to its own task.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/archlens/pulse/buildmode"
	"github.com/archlens/pulse/contract"
	"github.com/archlens/pulse/counter"
	"github.com/archlens/pulse/internal/pulseobs"
	"github.com/archlens/pulse/profiler"
	"github.com/archlens/pulse/record"
	"github.com/archlens/pulse/sink"
)

// Process is the single process-wide acquisition from §4.8: it owns the
// aggregation map and the sink pipeline, tracks the number of currently
// active threads, and performs final-aggregate emission followed by
// pipeline drain on Shutdown.
type Process struct {
	Mode     buildmode.Mode
	Pipeline *sink.Pipeline

	aggregator    *profiler.Aggregator
	obs           *pulseobs.Providers
	obsCfg        pulseobs.Config
	threadOrdinal atomic.Int64
	activeThreads atomic.Int64
	skewTotal     atomic.Uint64
	misuseTotal   atomic.Uint64
	shutdownOnce  sync.Once
}

// NewProcess constructs a Process in mode, fanning records out through
// pipeline (never nil — callers wanting no sinks still pass an empty
// *sink.Pipeline; the pipeline itself lazily installs a default sink per
// §4.5). obs may be nil when self-telemetry is not wanted.
func NewProcess(mode buildmode.Mode, pipeline *sink.Pipeline, obs *pulseobs.Providers, obsCfg pulseobs.Config) *Process {
	return &Process{
		Mode:       mode,
		Pipeline:   pipeline,
		aggregator: profiler.NewAggregator(),
		obs:        obs,
		obsCfg:     obsCfg,
	}
}

// AttachObservability wires obs/cfg into an already-constructed Process.
// Self-telemetry gauges typically read from the Process itself
// (aggregation map size, skew and misuse counts), so the usual sequence is to
// construct the Process first, build Gauges closing over it, initialize
// Providers from those Gauges, then attach the result here.
func (p *Process) AttachObservability(obs *pulseobs.Providers, cfg pulseobs.Config) {
	p.obs = obs
	p.obsCfg = cfg
}

// Aggregator returns the process-wide aggregation map, e.g. for a
// pulse report command that wants to read aggregates without waiting
// for shutdown.
func (p *Process) Aggregator() *profiler.Aggregator { return p.aggregator }

// ContractContext returns a contract.Context bound to this process's
// mode and pipeline, wired to count violations by kind in self-
// telemetry when obs is configured.
func (p *Process) ContractContext() contract.Context {
	ctx := contract.Context{Mode: p.Mode, Pipeline: p.Pipeline}

	if p.obs != nil {
		ctx.OnViolation = func(kind contract.Kind) {
			p.obs.Metrics.RecordViolation(context.Background(), string(kind))
		}
	}

	return ctx
}

// AcquireThread performs the per-thread lifecycle acquisition from
// §4.8: it opens a PlatformCounter for the calling thread, assigns a
// monotonic 1-based ordinal, and increments the active-thread count.
func (p *Process) AcquireThread(ctx context.Context) *Thread {
	ordinal := p.threadOrdinal.Add(1)
	p.activeThreads.Add(1)

	provider := counter.Open(ctx)

	return &Thread{
		process:  p,
		ordinal:  ordinal,
		provider: provider,
		tracker:  profiler.NewTracker(provider, p.aggregator),
	}
}

// ActiveThreadCount reports the number of threads currently acquired
// and not yet released.
func (p *Process) ActiveThreadCount() int64 { return p.activeThreads.Load() }

// SkewCount reports the cumulative snapshot_skew occurrences folded in
// from every thread released so far, for self-telemetry.
func (p *Process) SkewCount() uint64 { return p.skewTotal.Load() }

// MisuseCount reports the cumulative lifecycle_misuse occurrences (both
// unbalanced scope exits folded in at thread release and threads still
// active at process shutdown), for self-telemetry.
func (p *Process) MisuseCount() uint64 { return p.misuseTotal.Load() }

// foldThreadTelemetry accumulates a released thread's tracker counters
// into the process-wide totals self-telemetry reports.
func (p *Process) foldThreadTelemetry(skew, misuse uint64) {
	p.skewTotal.Add(skew)
	p.misuseTotal.Add(misuse)
}

// Shutdown performs the process-wide release from §4.8: it requires
// ActiveThreadCount() == 0 (the host is expected to have joined its
// threads first, per §4.8's invariant); a non-zero count is the
// lifecycle_misuse condition, which is recorded rather than blocking
// shutdown. It then walks the aggregation map in descending inclusive-
// wall-time order, emits one Record per entry, and drains the sink
// pipeline before returning.
func (p *Process) Shutdown(ctx context.Context) error {
	var shutdownErr error

	p.shutdownOnce.Do(func() {
		if active := p.activeThreads.Load(); active != 0 {
			p.logMisuse(ctx, active)
			p.misuseTotal.Add(uint64(active))
		}

		p.emitFinalAggregates()

		if p.Pipeline != nil {
			p.Pipeline.Shutdown()
		}

		if p.obs != nil {
			shutdownErr = p.obs.Shutdown(ctx, p.obsCfg)
		}
	})

	if shutdownErr != nil {
		return fmt.Errorf("lifecycle: process shutdown: %w", shutdownErr)
	}

	return nil
}

func (p *Process) logMisuse(ctx context.Context, active int64) {
	if p.obs != nil && p.obs.Logger != nil {
		p.obs.Logger.WarnContext(ctx, "process shutdown observed with active threads still acquired",
			"active_threads", active)
	}
}

// emitFinalAggregates implements §4.7's "Emission" step: one Record per
// aggregation-map entry, walked in descending inclusive wall-time order,
// carrying prof.calls, prof.workload, and every counter under
// prof.<name>.total/.self.
func (p *Process) emitFinalAggregates() {
	if p.Pipeline == nil {
		return
	}

	for _, key := range p.aggregator.EmitOrder() {
		agg, ok := p.aggregator.Get(key)
		if !ok {
			continue
		}

		rec := record.New().
			SetString(record.KeyCategory, "aggregate").
			SetString(record.KeyFunction, key.FunctionSignature).
			SetString(record.KeyParentFunction, key.ParentSignature).
			SetString(record.KeyBuildMode, p.Mode.String()).
			SetInt64("prof.calls", int64(agg.CallCount)).
			SetFloat64("prof.workload", agg.WorkloadSum).
			SetTimestamp(record.KeyTimestamp, time.Now())

		for _, k := range counter.All() {
			total, totalOK := agg.InclusiveTotal.Value(k)
			self, selfOK := agg.ExclusiveSelf.Value(k)

			if totalOK {
				rec.SetInt64(record.CounterKeyPrefix+k.String()+record.TotalSuffix, int64(total))
			}

			if selfOK {
				rec.SetInt64(record.CounterKeyPrefix+k.String()+record.SelfSuffix, int64(self))
			}
		}

		p.Pipeline.Submit(rec)
	}
}
