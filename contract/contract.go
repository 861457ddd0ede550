// Package contract implements the design-by-contract checks: argument,
// expect, confirm, invariant, and ensure. Violations emit a structured
// record through a sink pipeline and, depending on build mode, propagate
// as a *Violation error.
package contract

import (
	"fmt"
	"time"

	"github.com/archlens/pulse/buildmode"
	"github.com/archlens/pulse/record"
	"github.com/archlens/pulse/sink"
)

// Kind is one of the five check kinds from §4.6.
type Kind string

const (
	KindArgument  Kind = "argument"
	KindExpect    Kind = "expect"
	KindConfirm   Kind = "confirm"
	KindInvariant Kind = "invariant"
	KindEnsure    Kind = "ensure"
)

// Location is the source position a check was declared at.
type Location struct {
	File     string
	Line     int
	Column   int
	Function string
}

// Violation is the error returned when a check fails and the current
// build mode propagates contract failures. It is always a plain error
// value — the core never panics for a contract failure.
type Violation struct {
	Kind     Kind
	Message  string
	Location Location
}

func (v *Violation) Error() string {
	return fmt.Sprintf("contract: %s violation at %s:%d: %s", v.Kind, v.Location.File, v.Location.Line, v.Message)
}

// Context binds checks to a build mode and the pipeline violations are
// reported through. Call sites typically hold one Context per
// instrumented subsystem.
type Context struct {
	Mode     buildmode.Mode
	Pipeline *sink.Pipeline

	// OnViolation, when set, is called for every failed check before
	// the kind-specific propagation decision is made. It lets a host
	// (lifecycle.Process, in this module) count violations by kind for
	// self-telemetry without contract depending on a metrics package.
	OnViolation func(kind Kind)
}

// Argument checks a precondition on inputs.
func (c Context) Argument(cond bool, loc Location, format string, args ...any) error {
	return c.check(KindArgument, cond, loc, format, args...)
}

// Expect checks a precondition on collaborator state.
func (c Context) Expect(cond bool, loc Location, format string, args ...any) error {
	return c.check(KindExpect, cond, loc, format, args...)
}

// Confirm asserts a condition mid-body.
func (c Context) Confirm(cond bool, loc Location, format string, args ...any) error {
	return c.check(KindConfirm, cond, loc, format, args...)
}

func (c Context) check(kind Kind, cond bool, loc Location, format string, args ...any) error {
	if cond {
		return nil
	}

	message := fmt.Sprintf(format, args...)

	c.emit(kind, loc, message)

	if buildmode.ContractPropagates(c.Mode) {
		return &Violation{Kind: kind, Message: message, Location: loc}
	}

	return nil
}

func (c Context) emit(kind Kind, loc Location, message string) {
	if c.OnViolation != nil {
		c.OnViolation(kind)
	}

	if c.Pipeline == nil || !buildmode.Emits(c.Mode, buildmode.CategoryContract) {
		return
	}

	rec := record.New().
		SetString(record.KeyCategory, "contract").
		SetString(record.KeySubcategory, string(kind)).
		SetString(record.KeyMessage, message).
		SetString(record.KeyFile, loc.File).
		SetInt64(record.KeyLine, int64(loc.Line)).
		SetInt64(record.KeyColumn, int64(loc.Column)).
		SetString(record.KeyFunction, loc.Function).
		SetString(record.KeyBuildMode, c.Mode.String()).
		SetTimestamp(record.KeyTimestamp, wallClockNow())

	c.Pipeline.Submit(rec)
}

// wallClockNow is a var so tests can stub a deterministic clock.
var wallClockNow = time.Now
