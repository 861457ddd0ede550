// Package counter implements the per-thread kernel performance-counter
// subsystem: opening, grouping, resetting, enabling, reading, and closing
// hardware/software events, with multiplexing-aware scaling.
package counter

// Kind is the closed set of measurable quantities a PlatformCounter
// tracks. Ordering matches the group layout in §4.1: the four-member
// hardware group H1, the two-member groups H2/H3, then the nine
// independently-opened software singletons.
type Kind uint8

const (
	CPUCycles Kind = iota
	Instructions
	StallFrontend
	StallBackend

	CacheReferences
	CacheMisses

	BranchInstructions
	BranchMisses

	CPUClock
	TaskClock
	PageFaults
	ContextSwitches
	CPUMigrations
	MinorFaults
	MajorFaults
	AlignmentFaults
	EmulationFaults

	// numKinds is a sentinel giving the fixed array width used by
	// CounterSnapshot; it is not itself a measurable quantity.
	numKinds
)

// Category classifies where a Kind's samples originate.
type Category string

const (
	CategoryWall      Category = "wall"
	CategoryTaskCPU   Category = "task-cpu"
	CategoryFaults    Category = "faults"
	CategoryHardware  Category = "hardware"
	CategoryDerived   Category = "derived"
)

// Unit is the measurement unit of a Kind's raw value.
type Unit string

const (
	UnitNanoseconds Unit = "nanoseconds"
	UnitCount       Unit = "count"
	UnitRatio       Unit = "ratio"
)

// Meta describes one Kind: its wire name, source category, unit, and
// whether kernel multiplexing can scale its raw sample.
type Meta struct {
	Name     string
	Category Category
	Unit     Unit
	Scalable bool
}

var metadata = [numKinds]Meta{
	CPUCycles:          {"cpu_cycles", CategoryHardware, UnitCount, true},
	Instructions:       {"instructions", CategoryHardware, UnitCount, true},
	StallFrontend:      {"stall_frontend", CategoryHardware, UnitCount, true},
	StallBackend:       {"stall_backend", CategoryHardware, UnitCount, true},
	CacheReferences:    {"cache_references", CategoryHardware, UnitCount, true},
	CacheMisses:        {"cache_misses", CategoryHardware, UnitCount, true},
	BranchInstructions: {"branch_instructions", CategoryHardware, UnitCount, true},
	BranchMisses:       {"branch_misses", CategoryHardware, UnitCount, true},
	CPUClock:           {"cpu_clock", CategoryTaskCPU, UnitNanoseconds, true},
	TaskClock:          {"task_clock", CategoryTaskCPU, UnitNanoseconds, true},
	PageFaults:         {"page_faults", CategoryFaults, UnitCount, false},
	ContextSwitches:    {"context_switches", CategoryTaskCPU, UnitCount, false},
	CPUMigrations:      {"cpu_migrations", CategoryTaskCPU, UnitCount, false},
	MinorFaults:        {"minor_faults", CategoryFaults, UnitCount, false},
	MajorFaults:        {"major_faults", CategoryFaults, UnitCount, false},
	AlignmentFaults:    {"alignment_faults", CategoryFaults, UnitCount, false},
	EmulationFaults:    {"emulation_faults", CategoryFaults, UnitCount, false},
}

// All returns every Kind in declaration order, the order CounterSnapshot
// stores and iterates fields.
func All() []Kind {
	kinds := make([]Kind, numKinds)
	for i := range kinds {
		kinds[i] = Kind(i)
	}

	return kinds
}

// Meta returns the static metadata for k.
func (k Kind) Meta() Meta { return metadata[k] }

// String returns the canonical record-key name for k.
func (k Kind) String() string { return metadata[k].Name }

// NumKinds is the fixed width of a CounterSnapshot's per-kind arrays.
const NumKinds = int(numKinds)

// group identifies which hardware event group a Kind belongs to, or
// groupNone for software singletons (each of which is its own group of
// one for time_enabled/time_running purposes).
type group uint8

const (
	groupH1 group = iota
	groupH2
	groupH3
	groupNone
)

func (k Kind) group() group {
	switch k {
	case CPUCycles, Instructions, StallFrontend, StallBackend:
		return groupH1
	case CacheReferences, CacheMisses:
		return groupH2
	case BranchInstructions, BranchMisses:
		return groupH3
	default:
		return groupNone
	}
}

// hardwareGroups lists the grouped hardware Kinds leader-first, matching
// the H1/H2/H3 layout in §4.1.
var hardwareGroups = [][]Kind{
	{CPUCycles, Instructions, StallFrontend, StallBackend},
	{CacheReferences, CacheMisses},
	{BranchInstructions, BranchMisses},
}

// softwareSingletons lists the nine independently-opened software Kinds.
var softwareSingletons = []Kind{
	CPUClock, TaskClock, PageFaults, ContextSwitches, CPUMigrations,
	MinorFaults, MajorFaults, AlignmentFaults, EmulationFaults,
}
