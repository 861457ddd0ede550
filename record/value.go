// Package record defines the tagged-union value type and the
// insertion-order-preserving map that instrumentation points hand to the
// sink pipeline.
package record

import (
	"fmt"
	"time"
)

// Kind identifies which field of a Value is populated.
type Kind uint8

// The closed set of RecordValue tags.
const (
	KindBool Kind = iota
	KindInt64
	KindFloat64
	KindString
	KindTimestamp
)

// String returns a human-readable tag name, used in error messages and by
// sinks that need to branch on kind without a type switch.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Value is a tagged union over {bool, int64, float64, string, timestamp}.
// The zero Value is a bool false; construct with the Bool/Int64/... helpers
// rather than composite literals so the tag and payload never disagree.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
}

// Bool constructs a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int64 constructs a signed 64-bit integer Value.
func Int64(v int64) Value { return Value{kind: KindInt64, i: v} }

// Float64 constructs a double-precision Value.
func Float64(v float64) Value { return Value{kind: KindFloat64, f: v} }

// String constructs a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Timestamp constructs a timestamp Value.
func Timestamp(v time.Time) Value { return Value{kind: KindTimestamp, t: v} }

// Kind returns the tag discriminating which accessor is valid.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload and whether the tag matched.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Int64 returns the integer payload and whether the tag matched.
func (v Value) Int64() (int64, bool) { return v.i, v.kind == KindInt64 }

// Float64 returns the float payload and whether the tag matched.
func (v Value) Float64() (float64, bool) { return v.f, v.kind == KindFloat64 }

// String returns the string payload and whether the tag matched.
func (v Value) String() (string, bool) { return v.s, v.kind == KindString }

// Timestamp returns the timestamp payload and whether the tag matched.
func (v Value) Timestamp() (time.Time, bool) { return v.t, v.kind == KindTimestamp }

// GoString renders the value for debugging, dispatching on its tag.
func (v Value) GoString() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt64:
		return fmt.Sprintf("%d", v.i)
	case KindFloat64:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindTimestamp:
		return v.t.Format(ISO8601Nano)
	default:
		return ""
	}
}

// ISO8601Nano is the wire-format timestamp layout: nine-digit fractional
// seconds and a numeric (not "Z") timezone offset, per the record wire
// format (YYYY-MM-DDTHH:MM:SS.NNNNNNNNN±HHMM).
const ISO8601Nano = "2006-01-02T15:04:05.000000000-0700"
