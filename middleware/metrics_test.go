package middleware_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/weft/control"
	mw "github.com/xraph/weft/middleware"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
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

func outcomeOf(t *testing.T, rm metricdata.ResourceMetrics) string {
	t.Helper()
	metric := findMetric(rm, "weft.middleware.executions")
	if metric == nil {
		t.Fatal("weft.middleware.executions metric not found")
	}
	sum, isSum := metric.Data.(metricdata.Sum[int64])
	if !isSum || len(sum.DataPoints) == 0 {
		t.Fatal("expected Sum[int64] with data points")
	}
	v, _ := sum.DataPoints[0].Attributes.Value("outcome")
	return v.AsString()
}

func TestMetrics_RecordsDuration(t *testing.T) {
	reader, mp := setupTestMeter()
	b := mw.MetricsWithMeter(mp.Meter("test"))

	_, _ = b.Wrap(context.Background(), newTestCall(), succeed)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "weft.middleware.duration")
	if metric == nil {
		t.Fatal("weft.middleware.duration metric not found")
	}

	hist, isHist := metric.Data.(metricdata.Histogram[float64])
	if !isHist {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points recorded for duration")
	}
	if hist.DataPoints[0].Count != 1 {
		t.Errorf("expected count=1, got %d", hist.DataPoints[0].Count)
	}
}

func TestMetrics_Outcomes(t *testing.T) {
	tests := []struct {
		name string
		next mw.Next
		want string
	}{
		{"success", succeed, "ok"},
		{"failure", func(context.Context) (any, error) { return nil, errors.New("boom") }, "failure"},
		{"defect", func(context.Context) (any, error) { return nil, control.Redirect("/login") }, "defect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, mp := setupTestMeter()
			b := mw.MetricsWithMeter(mp.Meter("test"))

			_, _ = b.Wrap(context.Background(), newTestCall(), tt.next)

			if got := outcomeOf(t, collectMetrics(t, reader)); got != tt.want {
				t.Errorf("outcome = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetrics_Attributes(t *testing.T) {
	reader, mp := setupTestMeter()
	b := mw.MetricsWithMeter(mp.Meter("test"))

	_, _ = b.Wrap(context.Background(), newTestCall(), succeed)

	rm := collectMetrics(t, reader)

	for _, name := range []string{"weft.middleware.duration", "weft.middleware.executions"} {
		metric := findMetric(rm, name)
		if metric == nil {
			t.Errorf("%s metric not found", name)
			continue
		}

		var attrs []attribute.KeyValue
		switch data := metric.Data.(type) {
		case metricdata.Histogram[float64]:
			if len(data.DataPoints) > 0 {
				attrs = data.DataPoints[0].Attributes.ToSlice()
			}
		case metricdata.Sum[int64]:
			if len(data.DataPoints) > 0 {
				attrs = data.DataPoints[0].Attributes.ToSlice()
			}
		}

		attrMap := make(map[string]string, len(attrs))
		for _, a := range attrs {
			if a.Value.Type() == attribute.STRING {
				attrMap[string(a.Key)] = a.Value.AsString()
			}
		}

		expected := map[string]string{
			"entry":   "profile",
			"kind":    "page",
			"outcome": "ok",
		}
		for key, want := range expected {
			got, found := attrMap[key]
			if !found {
				t.Errorf("%s: missing attribute %q", name, key)
				continue
			}
			if got != want {
				t.Errorf("%s: attribute %q = %q, want %q", name, key, got, want)
			}
		}
	}
}

func TestMetrics_DefaultNoopSafe(t *testing.T) {
	b := mw.Metrics()

	called := false
	_, err := b.Wrap(context.Background(), newTestCall(), func(context.Context) (any, error) {
		called = true
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("next was not called")
	}
}
