package observe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
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

func sumOf(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordLLMCall(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordLLMCall(ctx, "mock", "analysis", 120*time.Millisecond, nil)
	m.RecordLLMCall(ctx, "mock", "summary", 80*time.Millisecond, errors.New("boom"))

	rm := collect(t, reader)

	req := findMetric(rm, "auditor.llm.requests")
	if req == nil {
		t.Fatal("auditor.llm.requests not found")
	}
	if got := sumOf(t, req); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}

	dur := findMetric(rm, "auditor.llm.duration")
	if dur == nil {
		t.Fatal("auditor.llm.duration not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", dur.Data)
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Errorf("histogram count = %d, want 2", count)
	}
}

func TestRecordFileAndRun(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordFile(ctx, "ok")
	m.RecordFile(ctx, "failed")
	m.RecordFile(ctx, "skipped")
	m.RecordRun(ctx, "ok")

	rm := collect(t, reader)
	if got := sumOf(t, findMetric(rm, "auditor.files.processed")); got != 3 {
		t.Errorf("files = %d, want 3", got)
	}
	if got := sumOf(t, findMetric(rm, "auditor.runs")); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestMiddleware_RecordsDuration(t *testing.T) {
	m, reader := newTestMetrics(t)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if findMetric(collect(t, reader), "auditor.http.request.duration") == nil {
		t.Fatal("auditor.http.request.duration not found")
	}
}
