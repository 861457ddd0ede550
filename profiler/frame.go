package profiler

import "github.com/archlens/pulse/counter"

// Location is the source position a scope was entered at.
type Location struct {
	File     string
	Line     int
	Column   int
	Function string
}

// Frame is one active Function/Block scope on a thread's stack. It is
// owned by the thread that created it and must be destroyed in strict
// LIFO order; nothing else may reference it after it is popped.
type Frame struct {
	Subsystem string
	Session   string
	Workload  float64
	Location  Location

	// ParentSignature is the function signature of the frame below
	// this one on the stack, or empty for the outermost frame.
	ParentSignature string

	// EntrySnapshot is the counter snapshot taken at scope entry.
	EntrySnapshot counter.Snapshot

	// ChildrenInclusiveAccum sums the inclusive deltas of every
	// directly nested child scope observed so far, so this frame's
	// eventual exclusive delta can subtract them out.
	ChildrenInclusiveAccum counter.Snapshot
}

// Signature is this frame's own function signature, used as the
// function half of a child's Key.ParentSignature.
func (f *Frame) Signature() string { return f.Location.Function }
