package sink

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// specDocument is the on-disk YAML shape LoadSpecs accepts: a top-level
// "sinks" list whose entries mirror Spec field for field.
type specDocument struct {
	Sinks []Spec `yaml:"sinks"`
}

// LoadSpecs parses a YAML document of the form:
//
//	sinks:
//	  - kind: ndjson
//	    path: <temp>/pulse.ndjson
//	  - kind: delimited
//	    path: <home>/pulse.csv
//	    fields: [timestamp, function, prof.task_clock.total]
//	    separator: ","
//
// into a []Spec ready for NewFromSpec. It is the sole YAML entry point
// the core exposes; everything else about reading the document off disk
// or overlaying environment variables is a host concern (cmd/pulsedemo's
// viper-backed config, not this package).
func LoadSpecs(data []byte) ([]Spec, error) {
	var doc specDocument

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("sink: parse spec document: %w", err)
	}

	return doc.Sinks, nil
}

// BuildAll constructs and registers one Sink per spec onto pipeline,
// stopping at the first construction failure. Callers wanting partial
// success should call NewFromSpec directly per entry instead.
func BuildAll(pipeline *Pipeline, specs []Spec) error {
	for i, spec := range specs {
		s, err := NewFromSpec(spec)
		if err != nil {
			return fmt.Errorf("sink: build spec %d (kind %q): %w", i, spec.Kind, err)
		}

		pipeline.Register(s)
	}

	return nil
}
