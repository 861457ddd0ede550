package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/archlens/pulse/record"
)

// entry pairs a registered Sink with a failure counter used for the
// sink_write_failure error kind in §7: a failing sink is recorded and
// never aborts instrumentation.
type entry struct {
	sink     Sink
	failures atomic.Uint64
}

// Pipeline owns zero or more sinks and fans every submitted record out
// to each of them on an independent goroutine, per §4.5. Submit never
// blocks on sink I/O; Shutdown waits for every outstanding write to
// finish before returning.
type Pipeline struct {
	mu           sync.Mutex
	entries      []*entry
	wg           sync.WaitGroup
	defaultOnce  sync.Once
	shuttingDown atomic.Bool
}

// New returns an empty pipeline. A default NDJSON sink is installed
// lazily on first Submit if no sink has been registered by then.
func New() *Pipeline {
	return &Pipeline{}
}

// Register adds s to the pipeline. Safe to call concurrently with
// Submit.
func (p *Pipeline) Register(s Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = append(p.entries, &entry{sink: s})
}

// Submit dispatches rec to every registered sink on its own goroutine.
// If no sink has ever been registered, the default sink (§4.5: an NDJSON
// sink writing to a process-specific file under the temp directory) is
// installed exactly once before dispatch.
func (p *Pipeline) Submit(rec *record.Record) {
	if p.shuttingDown.Load() {
		return
	}

	p.defaultOnce.Do(p.installDefault)

	p.mu.Lock()
	entries := make([]*entry, len(p.entries))
	copy(entries, p.entries)
	p.mu.Unlock()

	for _, e := range entries {
		e := e

		p.wg.Add(1)

		go func() {
			defer p.wg.Done()

			if err := e.sink.Write(rec); err != nil {
				e.failures.Add(1)
			}
		}()
	}
}

// Failures returns the total number of sink_write_failure occurrences
// observed across every sink, used by self-telemetry.
func (p *Pipeline) Failures() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	var total uint64

	for _, e := range p.entries {
		total += e.failures.Load()
	}

	return total
}

// Shutdown awaits every outstanding write before returning, per §4.5's
// "destruction MUST await all outstanding tasks". There is no per-write
// timeout; a wedged sink wedges Shutdown, matching §5's cancellation
// policy.
func (p *Pipeline) Shutdown() {
	p.shuttingDown.Store(true)
	p.wg.Wait()
}

func (p *Pipeline) installDefault() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) > 0 {
		return
	}

	name := DefaultFilename(filepath.Base(programName()), os.Getpid(), "ndjson")
	path := filepath.Join(os.TempDir(), name)

	file, err := os.Create(path)
	if err != nil {
		return
	}

	p.entries = append(p.entries, &entry{sink: NewNDJSONSink(file)})
}

func programName() string {
	if len(os.Args) == 0 {
		return "pulse"
	}

	return os.Args[0]
}

// Spec describes a sink to construct, decoupled from any particular
// configuration format. The host layer (e.g. the demo CLI's YAML/viper
// loader) builds a []Spec; the core only knows how to turn one Spec into
// a running Sink.
type Spec struct {
	Kind      string   // "ndjson", "delimited", or "stream"
	Path      string   // may start with a §6 directory token
	Fields    []string // DelimitedSink projection
	Separator string   // DelimitedSink field separator, default ","
	Quote     string   // DelimitedSink quote character, default "\""
	Stream    string   // StreamSink target: "stdout", "stderr"
}

// NewFromSpec constructs a Sink from spec, resolving any directory token in
// Path and creating the backing file as needed.
func NewFromSpec(spec Spec) (Sink, error) {
	switch spec.Kind {
	case "ndjson":
		return newFileSink(spec.Path, func(f *os.File) Sink { return NewNDJSONSink(f) })
	case "delimited":
		sep := spec.Separator
		if sep == "" {
			sep = ","
		}

		quote := spec.Quote
		if quote == "" {
			quote = "\""
		}

		return newFileSink(spec.Path, func(f *os.File) Sink {
			return NewDelimitedSink(f, spec.Fields, sep, quote)
		})
	case "stream":
		switch spec.Stream {
		case "stderr":
			return NewStreamSink(os.Stderr), nil
		default:
			return NewStreamSink(os.Stdout), nil
		}
	default:
		return nil, fmt.Errorf("sink: unknown spec kind %q", spec.Kind)
	}
}

func newFileSink(path string, build func(*os.File) Sink) (Sink, error) {
	dir, err := ResolveDir(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	full := filepath.Join(dir, filepath.Base(path))

	file, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("sink: create %s: %w", full, err)
	}

	return build(file), nil
}
