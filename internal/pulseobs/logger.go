package pulseobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/archlens/pulse/buildmode"
)

const (
	attrService   = "service"
	attrBuildMode = "build_mode"
)

// ModeHandler is an [slog.Handler] that injects pulse's service name and
// current build mode into every log record it emits about itself. It is
// adapted from the teacher's TracingHandler, minus the trace/span
// injection: pulse carries no tracer (distributed tracing is a spec.md
// Non-goal), so there is no span context to stamp records with.
type ModeHandler struct {
	inner slog.Handler
}

// NewModeHandler wraps inner, pre-attaching service and build_mode
// attributes so they appear at the top level even across WithGroup
// calls.
func NewModeHandler(inner slog.Handler, service string, mode buildmode.Mode) *ModeHandler {
	attrs := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrBuildMode, mode.String()),
	}

	return &ModeHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (h *ModeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle delegates to the inner handler.
func (h *ModeHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("pulseobs: handle log record: %w", err)
	}

	return nil
}

// WithAttrs returns a new ModeHandler with additional attributes on the
// inner handler.
func (h *ModeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ModeHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup returns a new ModeHandler with a group prefix on the inner
// handler.
func (h *ModeHandler) WithGroup(name string) slog.Handler {
	return &ModeHandler{inner: h.inner.WithGroup(name)}
}

// NewLogger builds the *slog.Logger pulse uses to describe its own
// failures (sink errors, lifecycle misuse) — never the host
// application's own log stream.
func NewLogger(cfg Config, mode buildmode.Mode) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		inner = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(NewModeHandler(inner, cfg.ServiceName, mode))
}
