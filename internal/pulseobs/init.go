package pulseobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/archlens/pulse/buildmode"
)

const meterName = "pulse"

// Providers holds pulse's initialized self-telemetry surface.
type Providers struct {
	Meter   metric.Meter
	Logger  *slog.Logger
	Metrics *SelfMetrics

	shutdown func(ctx context.Context) error
}

// Init builds pulse's self-telemetry: a MeterProvider (OTLP-exported
// when cfg.OTLPEndpoint is set, a zero-overhead no-op otherwise), the
// SelfMetrics instruments wired to gauges, and the structured logger
// pulse describes its own failures through. There is deliberately no
// TracerProvider here — see the package doc.
func Init(cfg Config, mode buildmode.Mode, gauges Gauges) (*Providers, error) {
	ctx := context.Background()

	res, err := buildResource(cfg, mode)
	if err != nil {
		return nil, err
	}

	mp, mpShutdown, err := buildMeterProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("pulseobs: build meter provider: %w", err)
	}

	meter := mp.Meter(meterName)

	metrics, err := NewSelfMetrics(meter, gauges)
	if err != nil {
		_ = mpShutdown(ctx)

		return nil, fmt.Errorf("pulseobs: build self metrics: %w", err)
	}

	return &Providers{
		Meter:    meter,
		Logger:   NewLogger(cfg, mode),
		Metrics:  metrics,
		shutdown: mpShutdown,
	}, nil
}

// Shutdown flushes the metric exporter, bounded by cfg's shutdown
// timeout (defaulted if unset).
func (p *Providers) Shutdown(ctx context.Context, cfg Config) error {
	if p == nil || p.shutdown == nil {
		return nil
	}

	timeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(defaultShutdownTimeoutSec) * time.Second
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.shutdown(deadlineCtx); err != nil {
		return fmt.Errorf("pulseobs: shutdown: %w", err)
	}

	return nil
}

func buildResource(cfg Config, mode buildmode.Mode) (*resource.Resource, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			attribute.String("pulse.build_mode", mode.String()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("pulseobs: build otel resource: %w", err)
	}

	return res, nil
}

type shutdownFunc func(ctx context.Context) error

func noopShutdown(_ context.Context) error { return nil }

func buildMeterProvider(
	ctx context.Context, cfg Config, res *resource.Resource,
) (metric.MeterProvider, shutdownFunc, error) {
	if cfg.OTLPEndpoint == "" {
		return noopmetric.NewMeterProvider(), noopShutdown, nil
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
	}

	if cfg.OTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.OTLPHeaders))
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("pulseobs: create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	return mp, mp.Shutdown, nil
}
