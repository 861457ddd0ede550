package counter

import "context"

// Provider is the capability set a PlatformCounter implementation
// exposes: open/reset/enable/snapshot/close. It is thread-bound — the
// kernel interface requires that counters opened for a task are read by
// that same task, so a Provider must never be shared across goroutines
// bound to different OS threads.
type Provider interface {
	// Open acquires the underlying counter handles (a leader per
	// hardware group plus the software singletons). Any kernel error
	// here is fatal for this instance; callers should fall back to
	// the no-op provider rather than retry.
	Open(ctx context.Context) error

	// Reset zeroes every counter's accumulated value without changing
	// its enabled state.
	Reset() error

	// Enable atomically activates every group's leader, which the
	// kernel propagates to that group's followers.
	Enable() error

	// Snapshot reads every handle and returns a scaled Snapshot. Reads
	// that fail are reflected as per-field unavailability rather than
	// a returned error; the error return is reserved for conditions
	// that make the entire snapshot unusable.
	Snapshot() (Snapshot, error)

	// Close releases every handle in the reverse order they were
	// opened.
	Close() error
}

// Open constructs a Provider for the current host, following the
// no-op-on-open-error and no-op-on-unsupported-platform failure modes of
// §4.1: a kernel error during Open degrades to NoopProvider rather than
// returning an error to the caller. A successful Open is always followed
// by Reset then Enable so the grouped leaders start counting atomically;
// a failure at either step also degrades to NoopProvider rather than
// handing the caller a Provider whose counters stay disabled.
func Open(ctx context.Context) Provider {
	p := newPlatformProvider()
	if err := p.Open(ctx); err != nil {
		return NoopProvider{}
	}

	if err := p.Reset(); err != nil {
		_ = p.Close()

		return NoopProvider{}
	}

	if err := p.Enable(); err != nil {
		_ = p.Close()

		return NoopProvider{}
	}

	return p
}
