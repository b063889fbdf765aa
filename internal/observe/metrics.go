// Package observe holds the OpenTelemetry instruments of the auditor and the
// Prometheus bridge that exposes them on /metrics. Tests should build their
// own [Metrics] with [NewMetrics] and a ManualReader.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "sales-auditor-go"

// Metrics bundles every instrument the pipeline records.
type Metrics struct {
	// LLMDuration is the latency of one LLM call, attrs provider/kind.
	LLMDuration metric.Float64Histogram

	// LLMRequests counts LLM calls, attrs provider/kind/status.
	LLMRequests metric.Int64Counter

	// FilesProcessed counts uploaded files by outcome
	// (ok, unreadable, failed, skipped).
	FilesProcessed metric.Int64Counter

	// Runs counts completed processing runs by status.
	Runs metric.Int64Counter

	HTTPRequestDuration metric.Float64Histogram
}

// LLM calls take seconds to tens of seconds.
var llmBuckets = []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.LLMDuration, err = m.Float64Histogram("auditor.llm.duration",
		metric.WithDescription("Latency of LLM calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(llmBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMRequests, err = m.Int64Counter("auditor.llm.requests",
		metric.WithDescription("LLM calls by provider, kind and status."),
	); err != nil {
		return nil, err
	}
	if met.FilesProcessed, err = m.Int64Counter("auditor.files.processed",
		metric.WithDescription("Uploaded transcripts by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Runs, err = m.Int64Counter("auditor.runs",
		metric.WithDescription("Completed processing runs by status."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("auditor.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics lazily builds a Metrics on the global MeterProvider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func (m *Metrics) RecordLLMCall(ctx context.Context, provider, kind string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.LLMDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
	))
	m.LLMRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordFile(ctx context.Context, status string) {
	m.FilesProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) RecordRun(ctx context.Context, status string) {
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
