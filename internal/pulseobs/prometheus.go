package pulseobs

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusHandler creates a Prometheus exporter backed by an
// independent OTel MeterProvider and returns an [http.Handler] serving
// that exporter's registry at a scrape endpoint. The MeterProvider is
// not returned and no SelfMetrics instruments are created on it, so the
// handler does not serve pulse's self-telemetry (sink failures, contract
// violations, aggregation map size). Each call creates its own registry
// so repeated calls (e.g. in tests) never collide.
func PrometheusHandler() (http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("pulseobs: create prometheus exporter: %w", err)
	}

	_ = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}
