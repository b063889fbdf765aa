package llm

import (
	"context"
	"time"

	"sales-auditor-go/internal/observe"
)

type meteredClient struct {
	next    Client
	metrics *observe.Metrics
}

// WithMetrics records latency and outcome of every call. The step label is
// read from the context, see [WithKind].
func WithMetrics(c Client, m *observe.Metrics) Client {
	if m == nil {
		return c
	}
	return &meteredClient{next: c, metrics: m}
}

func (m *meteredClient) Name() string { return m.next.Name() }

func (m *meteredClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := m.next.Generate(ctx, prompt)
	m.metrics.RecordLLMCall(ctx, m.next.Name(), KindFromContext(ctx), time.Since(start), err)
	return text, err
}
