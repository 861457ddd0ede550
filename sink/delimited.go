package sink

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/archlens/pulse/record"
)

// DelimitedSink writes one row per record using a fixed projection of
// keys given at construction time, a configurable field separator, and a
// configurable string quote character. Missing keys produce empty
// fields, per §4.5.
type DelimitedSink struct {
	mu        sync.Mutex
	w         io.Writer
	fields    []string
	separator string
	quote     string
}

// NewDelimitedSink constructs a sink projecting fields in order,
// separated by sep and quoting string values with quote.
func NewDelimitedSink(w io.Writer, fields []string, sep, quote string) *DelimitedSink {
	return &DelimitedSink{w: w, fields: fields, separator: sep, quote: quote}
}

// Write renders rec's projected fields as one delimited row.
func (s *DelimitedSink) Write(rec *record.Record) error {
	cells := make([]string, len(s.fields))

	for i, key := range s.fields {
		value, ok := rec.Get(key)
		if !ok {
			continue
		}

		cells[i] = s.renderCell(value)
	}

	line := strings.Join(cells, s.separator) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.w, line); err != nil {
		return fmt.Errorf("sink: delimited write: %w", err)
	}

	return nil
}

func (s *DelimitedSink) renderCell(v record.Value) string {
	switch v.Kind() {
	case record.KindBool:
		b, _ := v.Bool()

		return strconv.FormatBool(b)
	case record.KindInt64:
		i, _ := v.Int64()

		return strconv.FormatInt(i, 10)
	case record.KindFloat64:
		f, _ := v.Float64()

		return strconv.FormatFloat(f, 'g', -1, 64)
	case record.KindString:
		str, _ := v.String()

		return s.quote + str + s.quote
	case record.KindTimestamp:
		t, _ := v.Timestamp()

		return s.quote + t.Format(record.ISO8601Nano) + s.quote
	default:
		return ""
	}
}
