package counter

import "context"

// NoopProvider is the trivial provider used on non-Linux hosts and as
// the degraded fallback when opening kernel counters fails. Every
// snapshot is zero with every field flagged counter_unavailable, which
// downstream logic must treat as a fully supported configuration rather
// than an error state.
type NoopProvider struct{}

func (NoopProvider) Open(context.Context) error { return nil }
func (NoopProvider) Reset() error                { return nil }
func (NoopProvider) Enable() error               { return nil }
func (NoopProvider) Close() error                { return nil }

func (NoopProvider) Snapshot() (Snapshot, error) {
	return Zero(), nil
}
