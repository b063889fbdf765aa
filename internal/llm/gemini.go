package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Gemini talks to the Gemini API through the official genai SDK.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

// NewGemini builds a Gemini client. baseURL may be empty.
func NewGemini(ctx context.Context, apiKey, model, baseURL string, temperature float64, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: apiKey must not be empty")
	}
	if model == "" {
		return nil, errors.New("gemini: model must not be empty")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Gemini{client: client, model: strings.TrimPrefix(model, "models/"), temperature: temperature, timeout: timeout}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var cfg *genai.GenerateContentConfig
	if g.temperature != 0 {
		cfg = &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(g.temperature))}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", classifyStatus(geminiStatus(err), fmt.Errorf("gemini: generate content: %w", err))
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
