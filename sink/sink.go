// Package sink implements the asynchronous fan-out pipeline that carries
// Records from instrumentation points to pluggable writers: newline-
// delimited JSON, delimited text, and a synchronized output stream.
package sink

import "github.com/archlens/pulse/record"

// Sink is the capability set a sink implementation exposes: write. A
// Sink's Write MUST be safe to call concurrently with itself (the
// pipeline dispatches one call per submission on an independent task)
// and must never block on anything but its own I/O.
type Sink interface {
	Write(rec *record.Record) error
}

// Filter is a pure predicate over a record used to decide whether a sink
// should receive it. A Filter MUST NOT block or mutate the record.
type Filter func(rec *record.Record) bool

// filtered wraps a Sink with an optional Filter, skipping Write calls
// the predicate rejects.
type filtered struct {
	Sink
	filter Filter
}

func (f filtered) Write(rec *record.Record) error {
	if f.filter != nil && !f.filter(rec) {
		return nil
	}

	return f.Sink.Write(rec)
}

// WithFilter wraps s so that only records matching filter reach it.
func WithFilter(s Sink, filter Filter) Sink {
	return filtered{Sink: s, filter: filter}
}
