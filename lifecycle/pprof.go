package lifecycle

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
)

// StartCPUProfile starts a pprof CPU profile alongside a process's
// instrumentation, writing to path. It returns a stop function that must
// be deferred; passing an empty path yields a no-op stop. This is a
// companion to the aggregation-map emission a Process already performs,
// useful when a production-mode run needs a source-level profile to
// cross-reference against a pulse report.
func StartCPUProfile(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: create cpu profile %s: %w", path, err)
	}

	if err := pprof.StartCPUProfile(file); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("lifecycle: start cpu profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		_ = file.Close()
	}, nil
}

// WriteHeapProfile writes a single heap snapshot to path, forcing a GC
// first so the dump reflects live objects rather than garbage awaiting
// collection. A write failure is logged, never returned, matching the
// rest of the library's "never let telemetry plumbing take down the
// host" posture.
func WriteHeapProfile(path string, logger *slog.Logger) {
	if path == "" {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.Create(path)
	if err != nil {
		logger.Error("lifecycle: could not create heap profile", "path", path, "error", err)

		return
	}
	defer file.Close()

	runtime.GC()

	if err := pprof.WriteHeapProfile(file); err != nil {
		logger.Error("lifecycle: could not write heap profile", "path", path, "error", err)
	}
}
