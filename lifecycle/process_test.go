package lifecycle_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/pulse/buildmode"
	"github.com/archlens/pulse/internal/pulseobs"
	"github.com/archlens/pulse/lifecycle"
	"github.com/archlens/pulse/profiler"
	"github.com/archlens/pulse/sink"
)

func emptyObsConfig() pulseobs.Config { return pulseobs.Config{} }

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

func TestProcess_AcquireThreadAssignsOrdinals(t *testing.T) {
	t.Parallel()

	var buf syncBuffer
	pipeline := sink.New()
	pipeline.Register(sink.NewNDJSONSink(&buf))

	proc := lifecycle.NewProcess(buildmode.Development, pipeline, nil, emptyObsConfig())

	th1 := proc.AcquireThread(context.Background())
	th2 := proc.AcquireThread(context.Background())

	assert.Equal(t, int64(1), th1.Ordinal())
	assert.Equal(t, int64(2), th2.Ordinal())
	assert.Equal(t, int64(2), proc.ActiveThreadCount())

	require.NoError(t, th1.Release())
	assert.Equal(t, int64(1), proc.ActiveThreadCount())

	require.NoError(t, th2.Release())
	assert.Equal(t, int64(0), proc.ActiveThreadCount())

	require.NoError(t, proc.Shutdown(context.Background()))
}

func TestThread_ReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	pipeline := sink.New()
	proc := lifecycle.NewProcess(buildmode.Development, pipeline, nil, emptyObsConfig())

	th := proc.AcquireThread(context.Background())
	require.NoError(t, th.Release())
	require.NoError(t, th.Release())

	assert.Equal(t, int64(0), proc.ActiveThreadCount())

	require.NoError(t, proc.Shutdown(context.Background()))
}

func TestProcess_ShutdownIsIdempotent(t *testing.T) {
	t.Parallel()

	pipeline := sink.New()
	proc := lifecycle.NewProcess(buildmode.Development, pipeline, nil, emptyObsConfig())

	require.NoError(t, proc.Shutdown(context.Background()))
	require.NoError(t, proc.Shutdown(context.Background()))
}

// TestProcess_MultiThreadAggregation covers §8 scenario 6: four threads
// each record 1000 calls of the same scope; the aggregate's call count
// must equal 4000 regardless of which thread recorded which call.
func TestProcess_MultiThreadAggregation(t *testing.T) {
	t.Parallel()

	pipeline := sink.New()
	proc := lifecycle.NewProcess(buildmode.Development, pipeline, nil, emptyObsConfig())

	const threads = 4
	const callsPerThread = 1000

	var wg sync.WaitGroup
	wg.Add(threads)

	for i := 0; i < threads; i++ {
		go func() {
			defer wg.Done()

			th := proc.AcquireThread(context.Background())
			defer func() { _ = th.Release() }()

			tracker := th.Tracker()

			for j := 0; j < callsPerThread; j++ {
				tracker.Begin("", "", 1, profiler.Location{Function: "hot_path"})
				_, _ = tracker.End()
			}
		}()
	}

	wg.Wait()

	key := profiler.Key{FunctionSignature: "hot_path"}
	agg, ok := proc.Aggregator().Get(key)
	require.True(t, ok)
	assert.Equal(t, uint64(threads*callsPerThread), agg.CallCount)

	require.NoError(t, proc.Shutdown(context.Background()))
}

func TestProcess_ShutdownEmitsAggregateRecords(t *testing.T) {
	t.Parallel()

	var buf syncBuffer
	pipeline := sink.New()
	pipeline.Register(sink.NewNDJSONSink(&buf))

	proc := lifecycle.NewProcess(buildmode.Development, pipeline, nil, emptyObsConfig())

	th := proc.AcquireThread(context.Background())
	th.Tracker().Begin("", "", 1, profiler.Location{Function: "work"})
	_, _ = th.Tracker().End()
	require.NoError(t, th.Release())

	require.NoError(t, proc.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"category":"aggregate"`)
	assert.Contains(t, buf.String(), `"function":"work"`)
}

func TestProcess_ShutdownWithActiveThreadsRecordsMisuseButDoesNotBlock(t *testing.T) {
	t.Parallel()

	pipeline := sink.New()
	proc := lifecycle.NewProcess(buildmode.Development, pipeline, nil, emptyObsConfig())

	_ = proc.AcquireThread(context.Background())

	done := make(chan struct{})

	go func() {
		_ = proc.Shutdown(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown blocked despite an unreleased thread")
	}
}
