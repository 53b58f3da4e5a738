package telemetry

import (
	"context"

	dispatch "github.com/goliatone/go-dispatch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for dispatch metrics.
const meterName = "github.com/goliatone/go-dispatch"

// NewGlobalMetricsLogger records call metrics through the global
// MeterProvider.
func NewGlobalMetricsLogger() dispatch.CallLogger {
	return NewMetricsLogger(otel.Meter(meterName))
}

// NewMetricsLogger returns a CallLogger recording per-call metrics on meter.
//
// Instruments:
//   - dispatch.call.duration (Float64Histogram): call time in seconds
//   - dispatch.call.count (Int64Counter): finished calls
//
// Both carry domain, function and outcome attributes.
func NewMetricsLogger(meter metric.Meter) dispatch.CallLogger {
	// Instrument constructors return usable noop instruments on error.
	duration, _ := meter.Float64Histogram(
		"dispatch.call.duration",
		metric.WithDescription("Duration of multimethod calls in seconds"),
		metric.WithUnit("s"),
	)
	count, _ := meter.Int64Counter(
		"dispatch.call.count",
		metric.WithDescription("Total number of multimethod calls"),
		metric.WithUnit("{call}"),
	)
	return &metricsLogger{duration: duration, count: count}
}

type metricsLogger struct {
	duration metric.Float64Histogram
	count    metric.Int64Counter
}

func (m *metricsLogger) LogCall(ctx context.Context, event dispatch.CallLogEvent) {
	attrs := metric.WithAttributes(
		attribute.String("domain", event.Domain),
		attribute.String("function", event.Function),
		attribute.String("outcome", string(event.Outcome)),
	)
	m.duration.Record(ctx, event.Duration.Seconds(), attrs)
	m.count.Add(ctx, 1, attrs)
}
