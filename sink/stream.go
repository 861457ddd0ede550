package sink

import (
	"fmt"
	"io"
	"sync"

	"github.com/archlens/pulse/record"
)

// StreamSink wraps a platform output stream (standard error/out/log)
// with a writer that serializes concurrent writes, rendering each
// record with GoString for a compact single-line human-readable form.
// Unlike NDJSONSink this is meant for eyeballing output, not parsing.
type StreamSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStreamSink wraps w.
func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{w: w}
}

// Write renders rec as "key=value key=value ...\n".
func (s *StreamSink) Write(rec *record.Record) error {
	var line string

	first := true

	rec.Range(func(key string, value record.Value) bool {
		if !first {
			line += " "
		}

		first = false
		line += key + "=" + value.GoString()

		return true
	})

	line += "\n"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.w, line); err != nil {
		return fmt.Errorf("sink: stream write: %w", err)
	}

	return nil
}
