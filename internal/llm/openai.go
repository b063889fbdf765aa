package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// OpenAI calls the chat completions API through openai-go.
type OpenAI struct {
	client      oai.Client
	model       string
	temperature float64
}

func NewOpenAI(apiKey, model, baseURL string, temperature float64, timeout time.Duration) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, errors.New("openai: model must not be empty")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	// retries are handled by WithRetry
	opts = append(opts, option.WithMaxRetries(0))
	return &OpenAI{client: oai.NewClient(opts...), model: model, temperature: temperature}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(o.model),
		Messages: []oai.ChatCompletionMessageParamUnion{oai.UserMessage(prompt)},
	}
	if o.temperature != 0 {
		params.Temperature = param.NewOpt(o.temperature)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		status := 0
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return "", classifyStatus(status, fmt.Errorf("openai: chat completion: %w", err))
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
