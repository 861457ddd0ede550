package pulseobs

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// metricBuilder accumulates OTel instrument creation errors, enabling
// batch construction with a single error check. Adapted from the
// teacher's internal/observability metric_builder.go.
type metricBuilder struct {
	meter metric.Meter
	err   error
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

func (b *metricBuilder) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return c
}

func (b *metricBuilder) observableCounter(
	name, desc, unit string, cb metric.Int64Callback,
) metric.Int64ObservableCounter {
	c, err := b.meter.Int64ObservableCounter(
		name, metric.WithDescription(desc), metric.WithUnit(unit), metric.WithInt64Callback(cb),
	)
	b.setErr(name, err)

	return c
}

func (b *metricBuilder) observableGauge(
	name, desc, unit string, cb metric.Int64Callback,
) metric.Int64ObservableGauge {
	g, err := b.meter.Int64ObservableGauge(
		name, metric.WithDescription(desc), metric.WithUnit(unit), metric.WithInt64Callback(cb),
	)
	b.setErr(name, err)

	return g
}

func (b *metricBuilder) setErr(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
}
