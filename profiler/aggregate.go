package profiler

import (
	"sort"
	"sync"

	"github.com/archlens/pulse/counter"
	"github.com/archlens/pulse/histogram"
)

// Aggregate is the process-wide accumulator for one Key: call count,
// summed workload weight, inclusive/exclusive counter totals, and
// wall/cpu duration histograms, per §3's ProfileAggregate.
type Aggregate struct {
	CallCount       uint64
	WorkloadSum     float64
	InclusiveTotal  counter.Snapshot
	ExclusiveSelf   counter.Snapshot
	InclusiveWallNs uint64
	WallHistogram   *histogram.Histogram
	CPUHistogram    *histogram.Histogram
}

func newAggregate() *Aggregate {
	return &Aggregate{WallHistogram: histogram.New(), CPUHistogram: histogram.New()}
}

// Aggregator owns the single process-wide aggregation map. It is the
// only process-wide mutable resource in the library and is always
// accessed under its mutex, per §5.
type Aggregator struct {
	mu      sync.Mutex
	entries map[Key]*Aggregate
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{entries: make(map[Key]*Aggregate)}
}

// Record folds one scope-exit observation into the aggregate for key,
// creating it on first use. This is the sole mutation path into the
// aggregation map and corresponds to §4.7 step 4.
func (a *Aggregator) Record(key Key, workload float64, inclusiveDelta, exclusiveDelta counter.Snapshot, wallNs, cpuNs uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	agg, ok := a.entries[key]
	if !ok {
		agg = newAggregate()
		a.entries[key] = agg
	}

	agg.CallCount++
	agg.WorkloadSum += workload
	agg.InclusiveTotal = agg.InclusiveTotal.Add(inclusiveDelta)
	agg.ExclusiveSelf = agg.ExclusiveSelf.Add(exclusiveDelta)
	agg.InclusiveWallNs += wallNs
	agg.WallHistogram.Add(wallNs)
	agg.CPUHistogram.Add(cpuNs)
}

// Len reports the number of distinct keys currently aggregated, used by
// self-telemetry's aggregation-map-size gauge.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.entries)
}

// EmitOrder returns every key currently aggregated, sorted in
// descending order of inclusive wall-clock duration, the order §4.7
// specifies for final-aggregate emission.
func (a *Aggregator) EmitOrder() []Key {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([]Key, 0, len(a.entries))
	for k := range a.entries {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		return a.entries[keys[i]].InclusiveWallNs > a.entries[keys[j]].InclusiveWallNs
	})

	return keys
}

// Get returns a shallow copy of the aggregate for key, so callers never
// observe a partially-updated struct while holding no lock of their own.
func (a *Aggregator) Get(key Key) (Aggregate, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	agg, ok := a.entries[key]
	if !ok {
		return Aggregate{}, false
	}

	return *agg, true
}

// Snapshot returns a value copy of every aggregate, keyed the same as
// the live map, for checkpointing or reporting without holding the
// aggregator's lock for the duration of the caller's work.
func (a *Aggregator) Snapshot() map[Key]Aggregate {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[Key]Aggregate, len(a.entries))
	for k, v := range a.entries {
		out[k] = *v
	}

	return out
}

// Restore replaces the aggregator's contents with snapshot, used to
// resume from a checkpoint. Existing entries are discarded.
func (a *Aggregator) Restore(snapshot map[Key]Aggregate) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := make(map[Key]*Aggregate, len(snapshot))

	for k, v := range snapshot {
		v := v
		entries[k] = &v
	}

	a.entries = entries
}
