package pulse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/pulse"
	"github.com/archlens/pulse/buildmode"
)

func TestInstall_RejectsInvalidMode(t *testing.T) {
	t.Parallel()

	_, err := pulse.Install(pulse.Config{Mode: buildmode.Mode("bogus")})
	require.Error(t, err)
}

func TestInstall_DefaultConfigSucceeds(t *testing.T) {
	t.Parallel()

	lib, err := pulse.Install(pulse.DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, lib)

	require.NoError(t, lib.Shutdown(context.Background()))
}

// TestLibrary_FunctionAndBlockAttributeInclusiveAndExclusive covers §8
// scenario 2 end to end through the public API: a Function wrapping a
// Block records the inner scope as a child of the outer one.
func TestLibrary_FunctionAndBlockAttributeInclusiveAndExclusive(t *testing.T) {
	t.Parallel()

	lib, err := pulse.Install(pulse.Config{Mode: buildmode.Development})
	require.NoError(t, err)

	th := lib.AcquireThread(context.Background())

	func() {
		stop := th.Function("", "", 1)
		defer stop()

		inner := th.Block("decode", 1)
		inner()
	}()

	require.NoError(t, th.Release())
	require.NoError(t, lib.Shutdown(context.Background()))

	var sawOuter, sawInner bool

	for _, key := range lib.Aggregator().EmitOrder() {
		if key.ParentSignature == "" {
			sawOuter = true
		} else {
			sawInner = true
			assert.Contains(t, key.FunctionSignature, "::decode")
		}
	}

	assert.True(t, sawOuter)
	assert.True(t, sawInner)
}

func TestLibrary_ArgumentPropagatesInDevelopment(t *testing.T) {
	t.Parallel()

	lib, err := pulse.Install(pulse.Config{Mode: buildmode.Development})
	require.NoError(t, err)

	defer func() { _ = lib.Shutdown(context.Background()) }()

	err = lib.Argument(false, "value must be positive, got %d", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value must be positive, got -1")
}

func TestLibrary_ConfirmIsNoopWhenConditionHolds(t *testing.T) {
	t.Parallel()

	lib, err := pulse.Install(pulse.Config{Mode: buildmode.Development})
	require.NoError(t, err)

	defer func() { _ = lib.Shutdown(context.Background()) }()

	require.NoError(t, lib.Confirm(true, "unreachable"))
}

func TestLibrary_InvariantReEvaluatesOnRelease(t *testing.T) {
	t.Parallel()

	lib, err := pulse.Install(pulse.Config{Mode: buildmode.Development})
	require.NoError(t, err)

	defer func() { _ = lib.Shutdown(context.Background()) }()

	state := true
	g, err := lib.Invariant(func() bool { return state })
	require.NoError(t, err)

	state = false
	require.Error(t, g.Release(nil))
}

func TestThread_ReleaseBeforeLibraryShutdownIsRequired(t *testing.T) {
	t.Parallel()

	lib, err := pulse.Install(pulse.Config{Mode: buildmode.Development})
	require.NoError(t, err)

	th := lib.AcquireThread(context.Background())
	require.NoError(t, th.Release())
	require.NoError(t, th.Release(), "Release must be idempotent")

	require.NoError(t, lib.Shutdown(context.Background()))
}

func TestLibrary_AggregatorIsLiveBeforeShutdown(t *testing.T) {
	t.Parallel()

	lib, err := pulse.Install(pulse.Config{Mode: buildmode.Development})
	require.NoError(t, err)

	th := lib.AcquireThread(context.Background())
	stop := th.Function("", "", 1)
	stop()
	require.NoError(t, th.Release())

	keys := lib.Aggregator().EmitOrder()
	require.Len(t, keys, 1)
	assert.NotEmpty(t, keys[0].FunctionSignature)

	require.NoError(t, lib.Shutdown(context.Background()))
}
