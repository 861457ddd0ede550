package sink_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/pulse/sink"
)

func TestLoadSpecs_ParsesYAMLDocument(t *testing.T) {
	t.Parallel()

	doc := []byte(`
sinks:
  - kind: ndjson
    path: "<temp>/pulse.ndjson"
  - kind: delimited
    path: "<home>/pulse.csv"
    fields: [timestamp, function]
    separator: ";"
`)

	specs, err := sink.LoadSpecs(doc)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "ndjson", specs[0].Kind)
	assert.Equal(t, "<temp>/pulse.ndjson", specs[0].Path)

	assert.Equal(t, "delimited", specs[1].Kind)
	assert.Equal(t, []string{"timestamp", "function"}, specs[1].Fields)
	assert.Equal(t, ";", specs[1].Separator)
}

func TestLoadSpecs_EmptyDocumentYieldsNoSinks(t *testing.T) {
	t.Parallel()

	specs, err := sink.LoadSpecs([]byte(``))
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestLoadSpecs_MalformedYAMLErrors(t *testing.T) {
	t.Parallel()

	_, err := sink.LoadSpecs([]byte("sinks: [not: valid: yaml"))
	require.Error(t, err)
}

func TestBuildAll_RegistersStreamSinks(t *testing.T) {
	t.Parallel()

	p := sink.New()
	err := sink.BuildAll(p, []sink.Spec{{Kind: "stream", Stream: "stdout"}})
	require.NoError(t, err)

	p.Shutdown()
}

func TestBuildAll_UnknownKindErrors(t *testing.T) {
	t.Parallel()

	p := sink.New()
	err := sink.BuildAll(p, []sink.Spec{{Kind: "bogus"}})
	require.Error(t, err)
}
