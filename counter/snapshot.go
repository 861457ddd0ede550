package counter

import "math"

// Snapshot is an immutable tuple of one raw value per Kind plus the
// time_enabled/time_running pair used to undo kernel multiplexing.
// Grouped hardware events (H1/H2/H3) share an identical enabled/running
// pair within the group; each Kind still carries its own copy so
// subtraction never has to consult group membership.
type Snapshot struct {
	values      [NumKinds]uint64
	unavailable [NumKinds]bool
	enabled     [NumKinds]uint64
	running     [NumKinds]uint64
}

// Zero returns a snapshot with every field unavailable, the shape used
// by the no-op provider and by any host lacking the counter syscall.
func Zero() Snapshot {
	s := Snapshot{}
	for i := range s.unavailable {
		s.unavailable[i] = true
	}

	return s
}

// Set stores the raw value and enabled/running pair for k, applying
// multiplexing scaling per §4.1: when running < enabled the raw count is
// scaled by enabled/running; when running == 0 the field is marked
// counter_unavailable and the scaled value is 0.
func (s *Snapshot) Set(k Kind, raw, timeEnabled, timeRunning uint64) {
	s.enabled[k] = timeEnabled
	s.running[k] = timeRunning

	if timeRunning == 0 {
		s.values[k] = 0
		s.unavailable[k] = true

		return
	}

	if timeRunning < timeEnabled {
		scaled := float64(raw) * (float64(timeEnabled) / float64(timeRunning))
		s.values[k] = uint64(scaled)
	} else {
		s.values[k] = raw
	}

	s.unavailable[k] = false
}

// MarkUnavailable flags k as unavailable, used when open/read failed for
// that specific field without taking down the whole snapshot.
func (s *Snapshot) MarkUnavailable(k Kind) {
	s.values[k] = 0
	s.unavailable[k] = true
}

// Value returns the scaled value of k and whether it is available.
func (s Snapshot) Value(k Kind) (uint64, bool) {
	return s.values[k], !s.unavailable[k]
}

// Unavailable reports whether k carries no usable sample.
func (s Snapshot) Unavailable(k Kind) bool { return s.unavailable[k] }

// Sub computes the delta s − other componentwise, matching §4.2: the
// scaling pair for each field becomes (enabled_s − enabled_other,
// running_s − running_other). A field unavailable on either side is
// unavailable on the delta. A would-be negative difference is a
// snapshot_skew condition: the field is marked unavailable rather than
// wrapping, per the no-underflow invariant in §3.
func (s Snapshot) Sub(other Snapshot) (Snapshot, error) {
	var skew *SkewError

	delta := Snapshot{}

	for i := 0; i < NumKinds; i++ {
		k := Kind(i)

		if s.unavailable[k] || other.unavailable[k] {
			delta.MarkUnavailable(k)

			continue
		}

		if s.values[k] < other.values[k] {
			delta.MarkUnavailable(k)

			if skew == nil {
				skew = &SkewError{}
			}

			skew.Fields = append(skew.Fields, k)

			continue
		}

		delta.values[k] = s.values[k] - other.values[k]
		delta.unavailable[k] = false
		delta.enabled[k] = s.enabled[k] - other.enabled[k]
		delta.running[k] = s.running[k] - other.running[k]
	}

	if skew != nil {
		return delta, skew
	}

	return delta, nil
}

// Add computes the componentwise sum of s and other, used to accumulate
// per-scope deltas into ProfileAggregate totals and to re-fold a
// popped child's inclusive delta into its parent's children_inclusive_accum.
func (s Snapshot) Add(other Snapshot) Snapshot {
	sum := Snapshot{}

	for i := 0; i < NumKinds; i++ {
		k := Kind(i)

		if s.unavailable[k] || other.unavailable[k] {
			sum.MarkUnavailable(k)

			continue
		}

		sum.values[k] = s.values[k] + other.values[k]
		sum.unavailable[k] = false
		sum.enabled[k] = s.enabled[k] + other.enabled[k]
		sum.running[k] = s.running[k] + other.running[k]
	}

	return sum
}

// SkewError reports that subtracting two snapshots would have produced a
// negative value for one or more fields (the snapshot_skew error kind in
// §7). The affected fields are marked unavailable on the delta rather
// than wrapping.
type SkewError struct {
	Fields []Kind
}

func (e *SkewError) Error() string {
	return "counter: snapshot_skew on one or more fields"
}

// DerivedMetrics holds the §4.2 computed metrics for a delta snapshot.
type DerivedMetrics struct {
	CPUSeconds             float64
	TaskIdleFraction       float64
	MajorFaultsPerSecond   float64
	CyclesPerInstruction   float64
	FrontendStallFraction  float64
	BackendStallFraction   float64
	CacheMissFraction      float64
	BranchMissFraction     float64
}

// Derive computes DerivedMetrics from a delta snapshot per the §4.2
// table. Unavailable inputs are treated as zero for the purpose of the
// "denominator == 0" sentinel rules; callers needing per-field
// availability should check Unavailable directly instead.
func (s Snapshot) Derive() DerivedMetrics {
	cpuClock, _ := s.Value(CPUClock)
	taskClock, _ := s.Value(TaskClock)
	majorFaults, _ := s.Value(MajorFaults)
	cpuCycles, _ := s.Value(CPUCycles)
	instructions, _ := s.Value(Instructions)
	stallFrontend, _ := s.Value(StallFrontend)
	stallBackend, _ := s.Value(StallBackend)
	cacheRefs, _ := s.Value(CacheReferences)
	cacheMisses, _ := s.Value(CacheMisses)
	branchInsns, _ := s.Value(BranchInstructions)
	branchMisses, _ := s.Value(BranchMisses)

	d := DerivedMetrics{
		CPUSeconds: float64(cpuClock) / 1e9,
	}

	if cpuClock == 0 {
		d.TaskIdleFraction = 0
	} else {
		d.TaskIdleFraction = clamp01(1 - float64(taskClock)/float64(cpuClock))
	}

	if d.CPUSeconds == 0 {
		d.MajorFaultsPerSecond = 0
	} else {
		d.MajorFaultsPerSecond = float64(majorFaults) / d.CPUSeconds
	}

	if instructions == 0 {
		d.CyclesPerInstruction = math.NaN()
	} else {
		d.CyclesPerInstruction = float64(cpuCycles) / float64(instructions)
	}

	if cpuCycles == 0 {
		d.FrontendStallFraction = 0
		d.BackendStallFraction = 0
	} else {
		d.FrontendStallFraction = clamp01(float64(stallFrontend) / float64(cpuCycles))
		d.BackendStallFraction = clamp01(float64(stallBackend) / float64(cpuCycles))
	}

	if cacheRefs == 0 {
		d.CacheMissFraction = 0
	} else {
		d.CacheMissFraction = clamp01(float64(cacheMisses) / float64(cacheRefs))
	}

	if branchInsns == 0 {
		d.BranchMissFraction = 0
	} else {
		d.BranchMissFraction = clamp01(float64(branchMisses) / float64(branchInsns))
	}

	return d
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
