package contract_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/pulse/buildmode"
	"github.com/archlens/pulse/contract"
	"github.com/archlens/pulse/record"
	"github.com/archlens/pulse/sink"
)

func newTestPipeline(buf *syncBuffer) *sink.Pipeline {
	p := sink.New()
	p.Register(sink.NewNDJSONSink(buf))

	return p
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestContext_Argument_PassingConditionIsNoop(t *testing.T) {
	t.Parallel()

	ctx := contract.Context{Mode: buildmode.Development}
	err := ctx.Argument(true, contract.Location{}, "unused")
	require.NoError(t, err)
}

func TestContext_Argument_DevelopmentPropagatesViolation(t *testing.T) {
	t.Parallel()

	ctx := contract.Context{Mode: buildmode.Development}
	err := ctx.Argument(false, contract.Location{File: "f.go", Line: 10}, "bad value %d", 7)

	require.Error(t, err)

	var violation *contract.Violation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, contract.KindArgument, violation.Kind)
	assert.Contains(t, violation.Error(), "bad value 7")
}

func TestContext_Expect_ProductionSwallowsViolation(t *testing.T) {
	t.Parallel()

	ctx := contract.Context{Mode: buildmode.Production}
	err := ctx.Expect(false, contract.Location{}, "unexpected")

	assert.NoError(t, err, "production mode records but never propagates a contract failure")
}

func TestContext_OnViolationCalledRegardlessOfPropagation(t *testing.T) {
	t.Parallel()

	var kinds []contract.Kind

	ctx := contract.Context{
		Mode:        buildmode.Production,
		OnViolation: func(k contract.Kind) { kinds = append(kinds, k) },
	}

	_ = ctx.Confirm(false, contract.Location{}, "nope")

	require.Len(t, kinds, 1)
	assert.Equal(t, contract.KindConfirm, kinds[0])
}

func TestContext_EmitsContractRecordWhenModeAllows(t *testing.T) {
	t.Parallel()

	var buf syncBuffer
	p := newTestPipeline(&buf)

	ctx := contract.Context{Mode: buildmode.Development, Pipeline: p}
	_ = ctx.Argument(false, contract.Location{File: "a.go", Line: 3}, "broke")
	p.Shutdown()

	assert.Contains(t, buf.String(), `"category":"contract"`)
}

func TestContext_ProfileModeSuppressesContractRecords(t *testing.T) {
	t.Parallel()

	var buf syncBuffer
	p := newTestPipeline(&buf)

	ctx := contract.Context{Mode: buildmode.Profile, Pipeline: p}
	_ = ctx.Argument(false, contract.Location{}, "broke")
	p.Shutdown()

	assert.Empty(t, buf.String())
}

func TestGuard_InvariantCheckedAtConstructionAndRelease(t *testing.T) {
	t.Parallel()

	state := true

	ctx := contract.Context{Mode: buildmode.Development}
	g, err := ctx.Invariant(func() bool { return state }, contract.Location{})
	require.NoError(t, err)

	state = false
	err = g.Release(nil)
	require.Error(t, err)

	var violation *contract.Violation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, contract.KindInvariant, violation.Kind)
}

func TestGuard_ReleaseDuringUnwindSwallowsFailure(t *testing.T) {
	t.Parallel()

	ctx := contract.Context{Mode: buildmode.Development}
	g := ctx.Ensure(func() bool { return false }, contract.Location{})

	err := g.Release("panicking")
	assert.NoError(t, err, "a failing guard during stack unwind must not mask the original panic")
}

func TestGuard_EnsurePassingPredicateIsNoop(t *testing.T) {
	t.Parallel()

	ctx := contract.Context{Mode: buildmode.Development}
	g := ctx.Ensure(func() bool { return true }, contract.Location{})

	assert.NoError(t, g.Release(nil))
}
