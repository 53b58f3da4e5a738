package telemetry_test

import (
	"context"
	"testing"

	dispatch "github.com/goliatone/go-dispatch"
	"github.com/goliatone/go-dispatch/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type echoBackend struct{}

func (echoBackend) Domain() string { return "numerics" }

func (echoBackend) Dispatch(_ context.Context, _ *dispatch.Function, args dispatch.Args, _ dispatch.Kwargs) (any, error) {
	return args[0], nil
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestMetricsLoggerRecordsCalls(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	logger := telemetry.NewMetricsLogger(provider.Meter("test"))

	registry := dispatch.NewRegistry()
	if err := registry.SetGlobalBackend("numerics", echoBackend{}); err != nil {
		t.Fatalf("set global: %v", err)
	}
	fn := dispatch.MustNew(func(dispatch.Args, dispatch.Kwargs) ([]dispatch.Dispatchable, error) {
		return nil, nil
	}, nil, "numerics", dispatch.WithName("echo"), dispatch.WithRegistry(registry), dispatch.WithCallLogger(logger))

	for i := 0; i < 3; i++ {
		if _, err := fn.Call(context.Background(), dispatch.Args{i}, nil); err != nil {
			t.Fatalf("call: %v", err)
		}
	}

	rm := collect(t, reader)
	counter := findMetric(rm, "dispatch.call.count")
	if counter == nil {
		t.Fatalf("dispatch.call.count not found")
	}
	sum, ok := counter.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 {
		t.Fatalf("unexpected counter data: %#v", counter.Data)
	}
	point := sum.DataPoints[0]
	if point.Value != 3 {
		t.Fatalf("expected 3 calls, got %d", point.Value)
	}
	if outcome, _ := point.Attributes.Value(attribute.Key("outcome")); outcome.AsString() != "handled" {
		t.Fatalf("expected handled outcome, got %v", outcome.AsString())
	}

	histogram := findMetric(rm, "dispatch.call.duration")
	if histogram == nil {
		t.Fatalf("dispatch.call.duration not found")
	}
	hist, ok := histogram.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 3 {
		t.Fatalf("unexpected histogram data: %#v", histogram.Data)
	}
}
