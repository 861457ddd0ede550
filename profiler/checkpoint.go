package profiler

import (
	"github.com/archlens/pulse/counter"
	"github.com/archlens/pulse/histogram"
	"github.com/archlens/pulse/pkg/alg/mapx"
	"github.com/archlens/pulse/pkg/persist"
)

// checkpointEntry is the durable, JSON/gob-friendly projection of an
// Aggregate: histograms are flattened to their compacted buckets rather
// than replayed from raw observations, since the live Histogram already
// discards raw values as it compacts.
type checkpointEntry struct {
	ParentSignature   string
	FunctionSignature string
	CallCount         uint64
	WorkloadSum       float64
	InclusiveTotal    [counter.NumKinds]uint64
	ExclusiveSelf     [counter.NumKinds]uint64
	InclusiveWallNs   uint64
	WallCount         uint64
	WallBuckets       []histogram.Bucket
	CPUCount          uint64
	CPUBuckets        []histogram.Bucket
}

// checkpointState is the top-level persisted document.
type checkpointState struct {
	Entries map[string]checkpointEntry
}

func compositeKey(k Key) string {
	return k.ParentSignature + "\x00" + k.FunctionSignature
}

// Checkpoint persists and restores an Aggregator's contents, the
// single-process, single-run durability feature that lets a long
// qa/profile-mode run survive a crash without losing accumulated
// aggregates.
type Checkpoint struct {
	persister *persist.Persister[checkpointState]
}

// NewCheckpoint returns a Checkpoint writing "<basename><ext>" files via
// codec (JSON is the natural choice for operator-inspectable
// checkpoints; callers wanting compactness may pass persist.NewGobCodec()).
func NewCheckpoint(basename string, codec persist.Codec) *Checkpoint {
	return &Checkpoint{persister: persist.NewPersister[checkpointState](basename, codec)}
}

// Save writes agg's current contents to dir.
func (c *Checkpoint) Save(dir string, agg *Aggregator) error {
	snapshot := agg.Snapshot()

	entries := make(map[string]checkpointEntry, len(snapshot))

	for key, a := range snapshot {
		entries[compositeKey(key)] = toCheckpointEntry(key, a)
	}

	return c.persister.Save(dir, func() *checkpointState {
		return &checkpointState{Entries: entries}
	})
}

// Load restores agg's contents from a checkpoint previously written to
// dir, replacing whatever agg currently holds.
func (c *Checkpoint) Load(dir string, agg *Aggregator) error {
	return c.persister.Load(dir, func(state *checkpointState) {
		cloned := mapx.Clone(state.Entries)

		restored := make(map[Key]Aggregate, len(cloned))
		for _, composite := range mapx.SortedKeys(cloned) {
			key, a := fromCheckpointEntry(cloned[composite])
			restored[key] = a
		}

		agg.Restore(restored)
	})
}

func toCheckpointEntry(key Key, a Aggregate) checkpointEntry {
	ce := checkpointEntry{
		ParentSignature:   key.ParentSignature,
		FunctionSignature: key.FunctionSignature,
		CallCount:         a.CallCount,
		WorkloadSum:       a.WorkloadSum,
		InclusiveWallNs:   a.InclusiveWallNs,
		WallCount:         a.WallHistogram.Count(),
		WallBuckets:       a.WallHistogram.Buckets(),
		CPUCount:          a.CPUHistogram.Count(),
		CPUBuckets:        a.CPUHistogram.Buckets(),
	}

	for i := 0; i < counter.NumKinds; i++ {
		k := counter.Kind(i)
		ce.InclusiveTotal[i], _ = a.InclusiveTotal.Value(k)
		ce.ExclusiveSelf[i], _ = a.ExclusiveSelf.Value(k)
	}

	return ce
}

func fromCheckpointEntry(ce checkpointEntry) (Key, Aggregate) {
	key := Key{ParentSignature: ce.ParentSignature, FunctionSignature: ce.FunctionSignature}

	inclusive := counter.Snapshot{}
	exclusive := counter.Snapshot{}

	for i := 0; i < counter.NumKinds; i++ {
		k := counter.Kind(i)
		inclusive.Set(k, ce.InclusiveTotal[i], 1, 1)
		exclusive.Set(k, ce.ExclusiveSelf[i], 1, 1)
	}

	a := Aggregate{
		CallCount:       ce.CallCount,
		WorkloadSum:     ce.WorkloadSum,
		InclusiveTotal:  inclusive,
		ExclusiveSelf:   exclusive,
		InclusiveWallNs: ce.InclusiveWallNs,
		WallHistogram:   histogram.FromBuckets(ce.WallBuckets, ce.WallCount),
		CPUHistogram:    histogram.FromBuckets(ce.CPUBuckets, ce.CPUCount),
	}

	return key, a
}
