//go:build !pulse_off

package pulse

import (
	"runtime"

	"github.com/archlens/pulse/contract"
	"github.com/archlens/pulse/profiler"
)

// captureProfilerLocation reports the source position skip frames above
// its own call, for Thread.Function/Block to tag a ScopeFrame without
// the caller having to supply file/line/function by hand.
func captureProfilerLocation(skip int) profiler.Location {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return profiler.Location{}
	}

	return profiler.Location{File: file, Line: line, Function: funcName(pc)}
}

// captureContractLocation is captureProfilerLocation's counterpart for
// contract.Location, which has an identical shape but is a distinct type
// so the contract package stays independent of profiler.
func captureContractLocation(skip int) contract.Location {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return contract.Location{}
	}

	return contract.Location{File: file, Line: line, Function: funcName(pc)}
}

func funcName(pc uintptr) string {
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}

	return fn.Name()
}
