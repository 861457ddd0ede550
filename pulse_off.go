//go:build pulse_off

package pulse

import (
	"context"

	"github.com/archlens/pulse/profiler"
)

// Guard is the no-op counterpart of contract.Guard: Release always
// succeeds.
type Guard struct{}

// Release is a no-op.
func (*Guard) Release(any) error { return nil }

// Library is the no-op counterpart of the real Library: every method is
// a zero-cost stub with no observable side effect, per spec.md §6's
// requirement that the Off build eliminate instrumentation entirely.
type Library struct{}

// Install always succeeds and returns a Library that does nothing.
func Install(Config) (*Library, error) { return &Library{}, nil }

// Shutdown is a no-op.
func (*Library) Shutdown(context.Context) error { return nil }

// Aggregator returns an always-empty Aggregator so report-style host
// code compiles unchanged under pulse_off.
func (*Library) Aggregator() *profiler.Aggregator { return profiler.NewAggregator() }

// Thread is the no-op counterpart of the real Thread.
type Thread struct{}

// AcquireThread is a no-op.
func (*Library) AcquireThread(context.Context) *Thread { return &Thread{} }

// Release is a no-op.
func (*Thread) Release() error { return nil }

func noopStop() {}

// Function is a no-op; the returned function does nothing.
func (*Thread) Function(string, string, float64) func() { return noopStop }

// Block is a no-op; the returned function does nothing.
func (*Thread) Block(string, float64) func() { return noopStop }

// Argument is a no-op; it always reports success.
func (*Library) Argument(bool, string, ...any) error { return nil }

// Expect is a no-op; it always reports success.
func (*Library) Expect(bool, string, ...any) error { return nil }

// Confirm is a no-op; it always reports success.
func (*Library) Confirm(bool, string, ...any) error { return nil }

// Invariant is a no-op; the predicate is never evaluated.
func (*Library) Invariant(func() bool) (*Guard, error) { return &Guard{}, nil }

// Ensure is a no-op; the predicate is never evaluated.
func (*Library) Ensure(func() bool) *Guard { return &Guard{} }
