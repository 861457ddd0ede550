package counter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/pulse/counter"
)

func TestSnapshot_ZeroIsFullyUnavailable(t *testing.T) {
	t.Parallel()

	z := counter.Zero()

	for _, k := range counter.All() {
		assert.True(t, z.Unavailable(k))

		v, ok := z.Value(k)
		assert.False(t, ok)
		assert.Equal(t, uint64(0), v)
	}
}

func TestSnapshot_SetScalesForMultiplexing(t *testing.T) {
	t.Parallel()

	var s counter.Snapshot
	s.Set(counter.CPUCycles, 500, 1000, 500)

	v, ok := s.Value(counter.CPUCycles)
	require.True(t, ok)
	assert.Equal(t, uint64(1000), v)
}

func TestSnapshot_SetZeroRunningMarksUnavailable(t *testing.T) {
	t.Parallel()

	var s counter.Snapshot
	s.Set(counter.Instructions, 100, 1000, 0)

	assert.True(t, s.Unavailable(counter.Instructions))
	v, ok := s.Value(counter.Instructions)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), v)
}

func TestSnapshot_SubComputesDelta(t *testing.T) {
	t.Parallel()

	var a, b counter.Snapshot
	a.Set(counter.TaskClock, 2000, 1, 1)
	b.Set(counter.TaskClock, 500, 1, 1)

	delta, err := a.Sub(b)
	require.NoError(t, err)

	v, ok := delta.Value(counter.TaskClock)
	require.True(t, ok)
	assert.Equal(t, uint64(1500), v)
}

func TestSnapshot_SubNegativeIsSnapshotSkew(t *testing.T) {
	t.Parallel()

	var a, b counter.Snapshot
	a.Set(counter.TaskClock, 100, 1, 1)
	b.Set(counter.TaskClock, 900, 1, 1)

	delta, err := a.Sub(b)
	require.Error(t, err)

	var skewErr *counter.SkewError
	require.ErrorAs(t, err, &skewErr)
	assert.Contains(t, skewErr.Fields, counter.TaskClock)

	assert.True(t, delta.Unavailable(counter.TaskClock))
}

func TestSnapshot_SubUnavailableFieldPropagates(t *testing.T) {
	t.Parallel()

	a := counter.Zero()

	var b counter.Snapshot
	b.Set(counter.CPUCycles, 10, 1, 1)

	delta, err := a.Sub(b)
	require.NoError(t, err)
	assert.True(t, delta.Unavailable(counter.CPUCycles))
}

func TestSnapshot_AddSumsAvailableFields(t *testing.T) {
	t.Parallel()

	var a, b counter.Snapshot
	a.Set(counter.PageFaults, 3, 1, 1)
	b.Set(counter.PageFaults, 4, 1, 1)

	sum := a.Add(b)

	v, ok := sum.Value(counter.PageFaults)
	require.True(t, ok)
	assert.Equal(t, uint64(7), v)
}

func TestSnapshot_DeriveZeroDenominatorsAreSentineled(t *testing.T) {
	t.Parallel()

	z := counter.Zero()
	d := z.Derive()

	assert.Equal(t, float64(0), d.CPUSeconds)
	assert.Equal(t, float64(0), d.TaskIdleFraction)
	assert.Equal(t, float64(0), d.MajorFaultsPerSecond)
	assert.True(t, d.CyclesPerInstruction != d.CyclesPerInstruction, "0 instructions must yield NaN cycles-per-instruction")
}

func TestSnapshot_DeriveComputesRatios(t *testing.T) {
	t.Parallel()

	var s counter.Snapshot
	s.Set(counter.CPUClock, 1_000_000_000, 1, 1)
	s.Set(counter.TaskClock, 800_000_000, 1, 1)
	s.Set(counter.CPUCycles, 2000, 1, 1)
	s.Set(counter.Instructions, 1000, 1, 1)

	d := s.Derive()

	assert.InDelta(t, 1.0, d.CPUSeconds, 1e-9)
	assert.InDelta(t, 0.2, d.TaskIdleFraction, 1e-9)
	assert.InDelta(t, 2.0, d.CyclesPerInstruction, 1e-9)
}

func TestNoopProvider_AlwaysZero(t *testing.T) {
	t.Parallel()

	var p counter.NoopProvider

	require.NoError(t, p.Open(context.Background()))
	require.NoError(t, p.Enable())
	require.NoError(t, p.Reset())

	snap, err := p.Snapshot()
	require.NoError(t, err)

	for _, k := range counter.All() {
		assert.True(t, snap.Unavailable(k))
	}

	require.NoError(t, p.Close())
}
