// Package pulse is the public entry point for in-process instrumentation
// of native-style Go programs: per-thread kernel performance counters,
// nested-scope profiling, design-by-contract checks, and a pluggable
// record sink, installed once per process and acquired once per thread.
//
// Every exported operation here is a thin wrapper over the lower-level
// packages (counter, profiler, contract, sink, lifecycle) that do the
// real work; this package exists so a host never has to reach into
// those packages directly. Building with the pulse_off tag swaps this
// file's real implementation for pulse_off.go's no-op stubs, eliminating
// instrumentation entirely without touching call sites.
package pulse

import (
	"github.com/archlens/pulse/buildmode"
	"github.com/archlens/pulse/internal/pulseobs"
	"github.com/archlens/pulse/sink"
)

// Config is what a host passes to Install. Per spec.md §1, parsing this
// out of flags, environment variables, or a config file is the host's
// job — pulse itself never reads os.Args or the environment.
type Config struct {
	// Mode selects the runtime instrumentation intensity. Off is handled
	// by the pulse_off build tag, not by passing Mode: Off here.
	Mode buildmode.Mode

	// Sinks describes the sink pipeline to construct. An empty slice
	// falls back to the pipeline's lazily-installed default NDJSON
	// sink on first submission.
	Sinks []sink.Spec

	// Observability configures pulse's self-telemetry: its own
	// structured logging and the OTel metrics describing sink
	// failures, contract violations, and aggregation map size.
	Observability pulseobs.Config
}

// DefaultConfig returns a Config with the most conservative build mode
// (Production), no explicit sinks, and default self-telemetry.
func DefaultConfig() Config {
	return Config{
		Mode:          buildmode.Production,
		Observability: pulseobs.DefaultConfig(),
	}
}
