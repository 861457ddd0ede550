// Package buildmode defines the closed set of instrumentation intensities
// and the per-mode policy that the rest of pulse consults: which record
// categories are emitted and whether a contract violation propagates.
package buildmode

// Mode selects how intensely pulse instruments a running program.
type Mode string

// The closed set of build modes. Off is handled separately by the
// compile-time elision files (see the root package's pulse.go /
// pulse_off.go); the remaining five only vary emission policy at runtime.
const (
	// Off elides instrumentation entirely. Reaching the runtime policy
	// table with Off is a caller error; the compile-time no-op build
	// (tag pulse_off) never constructs a Config at all.
	Off Mode = "off"

	// Development emits every record category and contract violations
	// propagate as errors, for the fastest local feedback loop.
	Development Mode = "development"

	// Test behaves like Development but is the mode test suites should
	// declare explicitly, so instrumentation-driven test failures read
	// as intentional rather than incidental.
	Test Mode = "test"

	// Profile emits timing/counter records and suppresses contract
	// records, for low-overhead hot-path measurement.
	Profile Mode = "profile"

	// QA emits everything Development does but contract violations are
	// recorded rather than propagated, so a long QA soak run surfaces
	// every violation instead of stopping at the first one.
	QA Mode = "qa"

	// Production emits only aggregate/error records; contract
	// violations are recorded and swallowed.
	Production Mode = "production"
)

// Category identifies a class of record pulse may emit.
type Category string

// Record categories gated by build-mode policy.
const (
	CategoryScope    Category = "scope"
	CategoryContract Category = "contract"
	CategoryAggregate Category = "aggregate"
)

// policy is the emission/propagation table for a single Mode.
type policy struct {
	categories          map[Category]bool
	contractPropagates  bool
}

var policies = map[Mode]policy{
	Development: {
		categories:         map[Category]bool{CategoryScope: true, CategoryContract: true, CategoryAggregate: true},
		contractPropagates: true,
	},
	Test: {
		categories:         map[Category]bool{CategoryScope: true, CategoryContract: true, CategoryAggregate: true},
		contractPropagates: true,
	},
	Profile: {
		categories:         map[Category]bool{CategoryScope: true, CategoryContract: false, CategoryAggregate: true},
		contractPropagates: false,
	},
	QA: {
		categories:         map[Category]bool{CategoryScope: true, CategoryContract: true, CategoryAggregate: true},
		contractPropagates: false,
	},
	Production: {
		categories:         map[Category]bool{CategoryScope: false, CategoryContract: true, CategoryAggregate: true},
		contractPropagates: false,
	},
}

// Valid reports whether m is one of the runtime-active modes (Off is
// valid as a value but carries no policy entry — callers that reach here
// under Off should have been eliminated by the compile-time build tag).
func Valid(m Mode) bool {
	if m == Off {
		return true
	}

	_, ok := policies[m]

	return ok
}

// Emits reports whether records of the given category should be emitted
// in mode m. Unknown modes are treated as Production (most conservative).
func Emits(m Mode, category Category) bool {
	p, ok := policies[m]
	if !ok {
		return policies[Production].categories[category]
	}

	return p.categories[category]
}

// ContractPropagates reports whether a contract violation should
// propagate as an error (true) or be recorded and swallowed (false) in
// mode m. Unknown modes behave like Production.
func ContractPropagates(m Mode) bool {
	p, ok := policies[m]
	if !ok {
		return policies[Production].contractPropagates
	}

	return p.contractPropagates
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m)
}
