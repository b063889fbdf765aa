package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	anyllmerrors "github.com/mozilla-ai/any-llm-go/errors"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
)

// AnyLLM covers the remaining hosted and local backends via any-llm-go.
type AnyLLM struct {
	backend     anyllmlib.Provider
	name        string
	model       string
	temperature float64
	timeout     time.Duration
}

// NewAnyLLM creates a client for providerName (anthropic, ollama, mistral,
// groq, deepseek). An empty apiKey lets the library read its own env var.
func NewAnyLLM(providerName, apiKey, model, baseURL string, temperature float64, timeout time.Duration) (*AnyLLM, error) {
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}
	var opts []anyllmlib.Option
	if apiKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(baseURL))
	}

	var (
		backend anyllmlib.Provider
		err     error
	)
	switch strings.ToLower(providerName) {
	case "anthropic":
		backend, err = anthropic.New(opts...)
	case "ollama":
		backend, err = ollama.New(opts...)
	case "mistral":
		backend, err = mistral.New(opts...)
	case "groq":
		backend, err = groq.New(opts...)
	case "deepseek":
		backend, err = deepseek.New(opts...)
	default:
		return nil, fmt.Errorf("anyllm: unsupported provider %q", providerName)
	}
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}
	return &AnyLLM{backend: backend, name: strings.ToLower(providerName), model: model, temperature: temperature, timeout: timeout}, nil
}

func (a *AnyLLM) Name() string { return a.name }

func (a *AnyLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	params := anyllmlib.CompletionParams{
		Model:    a.model,
		Messages: []anyllmlib.Message{{Role: anyllmlib.RoleUser, Content: prompt}},
	}
	if a.temperature != 0 {
		t := a.temperature
		params.Temperature = &t
	}

	resp, err := a.backend.Completion(ctx, params)
	if err != nil {
		return "", classifyAnyLLM(fmt.Errorf("%s: completion: %w", a.name, err))
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := resp.Choices[0].Message.ContentString()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// classifyAnyLLM maps the library's unified error kinds onto retry
// semantics. Rate limits and generic provider failures stay retryable.
func classifyAnyLLM(err error) error {
	switch {
	case errors.Is(err, anyllmerrors.ErrAuthentication), errors.Is(err, anyllmerrors.ErrMissingAPIKey):
		return Permanent(errors.Join(ErrUnauthorized, err))
	case errors.Is(err, anyllmerrors.ErrInvalidRequest),
		errors.Is(err, anyllmerrors.ErrContextLength),
		errors.Is(err, anyllmerrors.ErrContentFilter),
		errors.Is(err, anyllmerrors.ErrModelNotFound),
		errors.Is(err, anyllmerrors.ErrUnsupportedParam):
		return Permanent(err)
	}
	var provErr *anyllmerrors.ProviderError
	if errors.As(err, &provErr) && provErr.StatusCode != 0 {
		return classifyStatus(provErr.StatusCode, err)
	}
	return err
}
