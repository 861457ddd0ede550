// Package pulseobs carries pulse's own self-telemetry: structured
// logging and OpenTelemetry metrics describing the instrumentation
// library's health (sink failures, contract violations, aggregation
// map size), never the host application's business metrics. Distributed
// tracing is deliberately absent — spec.md's Non-goals exclude
// distributed tracing and cross-process correlation, so this package
// only ever builds a MeterProvider, never a TracerProvider.
package pulseobs

import "log/slog"

const (
	// defaultServiceName is the OTel resource service name pulse
	// reports itself under when the host does not override it.
	defaultServiceName = "pulse"

	// defaultShutdownTimeoutSec bounds how long Shutdown waits for the
	// metric exporter to flush.
	defaultShutdownTimeoutSec = 5
)

// Config holds pulse's self-telemetry configuration. It is a plain
// struct with a DefaultConfig constructor, not something pulse parses
// from flags or environment variables itself — per spec.md §1 that
// parsing is the host's job.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables
	// export; the meter provider becomes a no-op and costs nothing.
	OTLPEndpoint string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// OTLPHeaders are additional gRPC metadata headers for the OTLP
	// exporter.
	OTLPHeaders map[string]string

	// PrometheusEnabled records whether the host wants a Prometheus
	// endpoint. Init does not read it, and nothing in pulse calls
	// PrometheusHandler or starts an endpoint when it is set.
	PrometheusEnabled bool

	// LogJSON selects JSON over text for pulse's own structured
	// logging.
	LogJSON bool

	// LogLevel controls the minimum slog severity pulse logs at.
	LogLevel slog.Level

	// ShutdownTimeoutSec is the maximum seconds Shutdown waits for the
	// metric exporter to flush.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config with sensible defaults for zero-config
// startup: no OTLP export, text logging at Info level.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
