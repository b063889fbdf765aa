// Package llm is the single boundary between the auditor and a generative
// model: send a prompt, get text back. Backends for Gemini, OpenAI, an
// OpenAI-compatible gateway and the any-llm-go family all satisfy [Client].
package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnauthorized marks credential failures. They are never retried and
	// halt a processing run.
	ErrUnauthorized = errors.New("llm: unauthorized")

	// ErrEmptyResponse is returned when the backend answered without text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Client generates text from a prompt. Implementations must honor ctx.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend in logs and metrics.
	Name() string
}

// permanentError wraps failures that retrying cannot fix.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err (or anything it wraps) was marked with
// [Permanent] or is an auth failure.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p) || errors.Is(err, ErrUnauthorized)
}

// classifyStatus turns an HTTP status from any backend into retry semantics.
// 401/403 become ErrUnauthorized, other 4xx except 429 are permanent.
func classifyStatus(status int, err error) error {
	switch {
	case status == 401 || status == 403:
		return Permanent(errors.Join(ErrUnauthorized, err))
	case status >= 400 && status < 500 && status != 429:
		return Permanent(err)
	default:
		return err
	}
}

type kindKey struct{}

// WithKind labels ctx with the pipeline step ("analysis", "summary") for
// metrics recorded further down.
func WithKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, kindKey{}, kind)
}

// KindFromContext returns the label set by [WithKind] or "unknown".
func KindFromContext(ctx context.Context) string {
	if k, ok := ctx.Value(kindKey{}).(string); ok && k != "" {
		return k
	}
	return "unknown"
}
