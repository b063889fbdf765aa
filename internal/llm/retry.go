package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"sales-auditor-go/internal/logger"
)

// RetryPolicy bounds how often a transient failure is re-sent.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxElapsedTime  time.Duration
}

type retryClient struct {
	next   Client
	policy RetryPolicy
	log    *logger.Logger
}

// WithRetry wraps c so transient errors are retried with exponential backoff.
// MaxRetries <= 0 returns c unchanged.
func WithRetry(c Client, policy RetryPolicy, log *logger.Logger) Client {
	if policy.MaxRetries <= 0 {
		return c
	}
	if log == nil {
		log = logger.Discard()
	}
	return &retryClient{next: c, policy: policy, log: log.Component("llm-retry")}
}

func (r *retryClient) Name() string { return r.next.Name() }

func (r *retryClient) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	attempt := 0
	op := func() error {
		attempt++
		text, err := r.next.Generate(ctx, prompt)
		if err == nil {
			out = text
			return nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		r.log.WithError(err).WithField("attempt", attempt).Warn("llm call failed, retrying")
		return err
	}

	b := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		b.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxElapsedTime > 0 {
		b.MaxElapsedTime = r.policy.MaxElapsedTime
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.policy.MaxRetries)), ctx)

	if err := backoff.Retry(op, bo); err != nil {
		return "", err
	}
	return out, nil
}
