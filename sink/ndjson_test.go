package sink_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/pulse/record"
	"github.com/archlens/pulse/sink"
)

func TestNDJSONSink_WritesOneObjectPerLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := sink.NewNDJSONSink(&buf)

	require.NoError(t, s.Write(record.New().SetString("a", "1").SetInt64("b", 2)))
	require.NoError(t, s.Write(record.New().SetBool("c", true)))

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "1", first["a"])
	assert.Equal(t, float64(2), first["b"])
}

func TestNDJSONSink_PreservesKeyOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := sink.NewNDJSONSink(&buf)

	require.NoError(t, s.Write(record.New().SetString("z", "1").SetString("a", "2")))

	out := buf.String()
	assert.Less(t, indexOf(out, `"z"`), indexOf(out, `"a"`))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}

	return -1
}

func TestDelimitedSink_ProjectsFieldsInOrderAndQuotesStrings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := sink.NewDelimitedSink(&buf, []string{"name", "count", "missing"}, ",", "\"")

	require.NoError(t, s.Write(record.New().SetString("name", "foo").SetInt64("count", 3)))

	assert.Equal(t, "\"foo\",3,\n", buf.String())
}
