package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/archlens/pulse/record"
)

// NDJSONSink writes one JSON object per record per line, UTF-8 encoded,
// keys in insertion order, values serialized per their RecordValue tag,
// per §4.5/§6.
type NDJSONSink struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewNDJSONSink wraps w. If w also implements io.Closer, Close releases
// it; callers that pass os.Stdout or similar should wrap it so Close is
// a no-op, since the pipeline never closes shared streams itself.
func NewNDJSONSink(w io.Writer) *NDJSONSink {
	s := &NDJSONSink{w: w}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}

	return s
}

// Write serializes rec as a single JSON line and appends it atomically
// with respect to other Write calls on this sink.
func (s *NDJSONSink) Write(rec *record.Record) error {
	var buf bytes.Buffer

	buf.WriteByte('{')

	first := true

	var writeErr error

	rec.Range(func(key string, value record.Value) bool {
		if !first {
			buf.WriteByte(',')
		}

		first = false

		keyJSON, err := json.Marshal(key)
		if err != nil {
			writeErr = fmt.Errorf("sink: marshal key %q: %w", key, err)

			return false
		}

		buf.Write(keyJSON)
		buf.WriteByte(':')

		if err := writeValueJSON(&buf, value); err != nil {
			writeErr = err

			return false
		}

		return true
	})

	if writeErr != nil {
		return writeErr
	}

	buf.WriteByte('}')
	buf.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("sink: ndjson write: %w", err)
	}

	return nil
}

// Close releases the underlying writer if it is closable.
func (s *NDJSONSink) Close() error {
	if s.closer == nil {
		return nil
	}

	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("sink: ndjson close: %w", err)
	}

	return nil
}

func writeValueJSON(buf *bytes.Buffer, v record.Value) error {
	switch v.Kind() {
	case record.KindBool:
		b, _ := v.Bool()
		if b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case record.KindInt64:
		i, _ := v.Int64()
		buf.WriteString(strconv.FormatInt(i, 10))
	case record.KindFloat64:
		f, _ := v.Float64()
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case record.KindString:
		s, _ := v.String()

		encoded, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("sink: marshal string value: %w", err)
		}

		buf.Write(encoded)
	case record.KindTimestamp:
		t, _ := v.Timestamp()

		encoded, err := json.Marshal(t.Format(record.ISO8601Nano))
		if err != nil {
			return fmt.Errorf("sink: marshal timestamp value: %w", err)
		}

		buf.Write(encoded)
	default:
		return fmt.Errorf("sink: unknown record value kind %v", v.Kind())
	}

	return nil
}
