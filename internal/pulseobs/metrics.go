package pulseobs

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricContractViolations = "pulse.contract.violations"
	metricSinkWriteFailures  = "pulse.sink.write_failures"
	metricLifecycleMisuse    = "pulse.lifecycle.misuse"
	metricSnapshotSkew       = "pulse.counter.snapshot_skew"
	metricAggregationMapSize = "pulse.profiler.aggregation_map_size"

	attrKind = "kind"
)

// Gauges is the set of poll functions SelfMetrics reads from on every
// collection pass. Each is cheap and lock-protected by its owner
// (Aggregator.Len, Pipeline.Failures, and so on), matching the
// "observe, never own" relationship §9 describes for ScopeFrame's
// references into process-wide state.
type Gauges struct {
	AggregationMapSize func() int64
	SinkWriteFailures  func() int64
	SnapshotSkew       func() int64
	LifecycleMisuse    func() int64
}

// SelfMetrics holds the OTel instruments describing pulse's own health,
// per the error taxonomy in spec.md §7: contract_violation is a
// synchronous counter incremented at the point of violation; the rest
// are observable instruments polled from Gauges at collection time.
type SelfMetrics struct {
	ContractViolations metric.Int64Counter
}

// NewSelfMetrics creates pulse's self-telemetry instruments against mt,
// wiring the observable instruments to gauges. Grounded on the teacher's
// NewREDMetrics, generalized from per-request RED metrics to
// per-library health counters.
func NewSelfMetrics(mt metric.Meter, gauges Gauges) (*SelfMetrics, error) {
	b := newMetricBuilder(mt)

	sm := &SelfMetrics{
		ContractViolations: b.counter(
			metricContractViolations, "Contract violations observed, by kind", "{violation}",
		),
	}

	b.observableGauge(
		metricAggregationMapSize, "Distinct (parent, function) keys in the aggregation map", "{key}",
		func(_ context.Context, o metric.Int64Observer) error {
			if gauges.AggregationMapSize != nil {
				o.Observe(gauges.AggregationMapSize())
			}

			return nil
		},
	)

	b.observableCounter(
		metricSinkWriteFailures, "Cumulative sink_write_failure occurrences across all sinks", "{failure}",
		func(_ context.Context, o metric.Int64Observer) error {
			if gauges.SinkWriteFailures != nil {
				o.Observe(gauges.SinkWriteFailures())
			}

			return nil
		},
	)

	b.observableCounter(
		metricSnapshotSkew, "Cumulative snapshot_skew occurrences across all threads", "{occurrence}",
		func(_ context.Context, o metric.Int64Observer) error {
			if gauges.SnapshotSkew != nil {
				o.Observe(gauges.SnapshotSkew())
			}

			return nil
		},
	)

	b.observableCounter(
		metricLifecycleMisuse, "Cumulative lifecycle_misuse occurrences", "{occurrence}",
		func(_ context.Context, o metric.Int64Observer) error {
			if gauges.LifecycleMisuse != nil {
				o.Observe(gauges.LifecycleMisuse())
			}

			return nil
		},
	)

	if b.err != nil {
		return nil, b.err
	}

	return sm, nil
}

// RecordViolation increments ContractViolations for kind.
func (sm *SelfMetrics) RecordViolation(ctx context.Context, kind string) {
	if sm == nil || sm.ContractViolations == nil {
		return
	}

	sm.ContractViolations.Add(ctx, 1, metric.WithAttributes(attribute.String(attrKind, kind)))
}
