package telemetry_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jsamuelsen11/go-catcher/internal/platform/telemetry"
	"github.com/jsamuelsen11/go-catcher/pkg/catcher"
)

func TestInitTracer_Stdout(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.InitTracer(ctx, "test-service", telemetry.ExporterStdout, "")
	if err != nil {
		t.Fatalf("InitTracer(stdout) error = %v", err)
	}
	t.Cleanup(func() {
		if err := tp.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown error = %v", err)
		}
	})

	if tp == nil {
		t.Fatal("InitTracer(stdout) returned nil TracerProvider")
	}
}

func TestInitTracer_OTLP(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.InitTracer(ctx, "test-service", telemetry.ExporterOTLP, "http://localhost:4318")
	if err != nil {
		t.Fatalf("InitTracer(otlp) error = %v", err)
	}
	t.Cleanup(func() {
		// Shutdown may fail when no collector is running; this is expected in unit tests.
		_ = tp.Shutdown(ctx)
	})

	if tp == nil {
		t.Fatal("InitTracer(otlp) returned nil TracerProvider")
	}
}

func TestInitTracer_SetsGlobalPropagator(t *testing.T) {
	ctx := context.Background()

	tp, err := telemetry.InitTracer(ctx, "test-service", telemetry.ExporterStdout, "")
	if err != nil {
		t.Fatalf("InitTracer error = %v", err)
	}
	t.Cleanup(func() {
		if err := tp.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown error = %v", err)
		}
	})

	prop := otel.GetTextMapPropagator()
	if _, ok := prop.(propagation.TraceContext); ok {
		// Single TraceContext is fine but we expect a composite.
		return
	}
	// Composite propagator should have non-empty Fields().
	if len(prop.Fields()) == 0 {
		t.Error("global propagator has no fields, want TraceContext + Baggage fields")
	}
}

func TestInitTracer_UnsupportedExporter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := telemetry.InitTracer(ctx, "test-service", "invalid", "")
	if err == nil {
		t.Fatal("InitTracer with unsupported exporter should return error")
	}
}

func TestInitTracer_OTLPEmptyEndpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := telemetry.InitTracer(ctx, "test-service", telemetry.ExporterOTLP, "")
	if err == nil {
		t.Fatal("InitTracer with otlp and empty endpoint should return error")
	}
}

func TestInitMeter_Stdout(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.InitMeter(ctx, "test-service", telemetry.ExporterStdout, "")
	if err != nil {
		t.Fatalf("InitMeter(stdout) error = %v", err)
	}
	t.Cleanup(func() {
		if err := mp.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown error = %v", err)
		}
	})

	if mp == nil {
		t.Fatal("InitMeter(stdout) returned nil MeterProvider")
	}
}

func TestInitMeter_OTLP(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.InitMeter(ctx, "test-service", telemetry.ExporterOTLP, "http://localhost:4318")
	if err != nil {
		t.Fatalf("InitMeter(otlp) error = %v", err)
	}
	t.Cleanup(func() {
		// Shutdown may fail when no collector is running; this is expected in unit tests.
		_ = mp.Shutdown(ctx)
	})

	if mp == nil {
		t.Fatal("InitMeter(otlp) returned nil MeterProvider")
	}
}

func TestInitMeter_UnsupportedExporter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := telemetry.InitMeter(ctx, "test-service", "invalid", "")
	if err == nil {
		t.Fatal("InitMeter with unsupported exporter should return error")
	}
}

func TestInitMeter_OTLPEmptyEndpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := telemetry.InitMeter(ctx, "test-service", telemetry.ExporterOTLP, "")
	if err == nil {
		t.Fatal("InitMeter with otlp and empty endpoint should return error")
	}
}

func TestNewMetrics(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.InitMeter(ctx, "test-service", telemetry.ExporterStdout, "")
	if err != nil {
		t.Fatalf("InitMeter error = %v", err)
	}
	t.Cleanup(func() {
		if err := mp.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown error = %v", err)
		}
	})

	metrics, err := telemetry.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics error = %v", err)
	}

	if metrics.CallsTotal == nil {
		t.Error("CallsTotal is nil")
	}
	if metrics.CallDuration == nil {
		t.Error("CallDuration is nil")
	}
}

// --- Observe ---

func newManualMetrics(t *testing.T) (*telemetry.Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := telemetry.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics error = %v", err)
	}
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect error = %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %q not collected", name)
	return metricdata.Metrics{}
}

func TestMetrics_ObserveCountsByResult(t *testing.T) {
	t.Parallel()

	metrics, reader := newManualMetrics(t)
	c := catcher.New(catcher.WithObserver(metrics), catcher.WithStack(false))

	c.Catch(func() {})
	c.Catch(func() { panic("boom") })
	c.Catch(func() { panic("again") })

	sum, ok := collect(t, reader, "catcher.calls.total").Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("catcher.calls.total is not an int64 sum")
	}

	got := map[string]int64{}
	for _, dp := range sum.DataPoints {
		result, _ := dp.Attributes.Value(telemetry.AttrResult)
		got[result.AsString()] += dp.Value
	}

	if got[telemetry.ResultOK] != 1 {
		t.Errorf("ok calls = %d, want 1", got[telemetry.ResultOK])
	}
	if got[telemetry.ResultTrapped] != 2 {
		t.Errorf("trapped calls = %d, want 2", got[telemetry.ResultTrapped])
	}
}

func TestMetrics_ObserveLabelsPanicKind(t *testing.T) {
	t.Parallel()

	metrics, reader := newManualMetrics(t)

	metrics.Observe(context.Background(), time.Millisecond, &catcher.Error{Kind: catcher.KindRuntime})

	sum, ok := collect(t, reader, "catcher.calls.total").Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 {
		t.Fatalf("catcher.calls.total data = %+v, want one int64 data point", sum)
	}
	kind, found := sum.DataPoints[0].Attributes.Value(telemetry.AttrPanicKind)
	if !found || kind.AsString() != string(catcher.KindRuntime) {
		t.Errorf("panic.kind = %q (found %v), want %q", kind.AsString(), found, catcher.KindRuntime)
	}
}

func TestMetrics_ObserveRecordsDuration(t *testing.T) {
	t.Parallel()

	metrics, reader := newManualMetrics(t)

	metrics.Observe(context.Background(), 250*time.Millisecond, nil)

	hist, ok := collect(t, reader, "catcher.call.duration").Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 {
		t.Fatalf("catcher.call.duration data = %+v, want one float64 histogram point", hist)
	}
	dp := hist.DataPoints[0]
	if dp.Count != 1 {
		t.Errorf("Count = %d, want 1", dp.Count)
	}
	if dp.Sum != 0.25 {
		t.Errorf("Sum = %v, want 0.25", dp.Sum)
	}
}

func TestMetrics_DurationUsesSubSecondBuckets(t *testing.T) {
	t.Parallel()

	metrics, reader := newManualMetrics(t)

	metrics.Observe(context.Background(), 20*time.Microsecond, nil)

	hist, ok := collect(t, reader, "catcher.call.duration").Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 {
		t.Fatalf("catcher.call.duration data = %+v, want one float64 histogram point", hist)
	}
	dp := hist.DataPoints[0]
	if !slices.Equal(dp.Bounds, telemetry.DurationBuckets) {
		t.Errorf("Bounds = %v, want %v", dp.Bounds, telemetry.DurationBuckets)
	}
	if len(dp.BucketCounts) != len(telemetry.DurationBuckets)+1 {
		t.Fatalf("len(BucketCounts) = %d, want %d", len(dp.BucketCounts), len(telemetry.DurationBuckets)+1)
	}
	// 20µs falls in (10µs, 50µs].
	if dp.BucketCounts[1] != 1 {
		t.Errorf("BucketCounts = %v, want the 20µs call in bucket 1", dp.BucketCounts)
	}
}
