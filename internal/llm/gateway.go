package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sales-auditor-go/internal/logger"
)

// Gateway posts OpenAI-style chat requests to an arbitrary HTTP gateway
// (LLM_GATEWAY_URL) and reads choices[0].message.content.
type Gateway struct {
	url         string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	log         *logger.Logger
}

func NewGateway(url, apiKey, model string, temperature float64, timeout time.Duration, log *logger.Logger) (*Gateway, error) {
	if url == "" || apiKey == "" {
		return nil, errors.New("llm gateway not configured")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Gateway{
		url:         url,
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		log:         log.Component("llm-gateway"),
	}, nil
}

func (g *Gateway) Name() string { return "gateway" }

func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": g.temperature,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", Permanent(fmt.Errorf("gateway: encode request: %w", err))
	}
	g.log.WithField("payload_len", len(data)).Debug("llm request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(data))
	if err != nil {
		return "", Permanent(fmt.Errorf("gateway: build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	g.log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(body))

	if resp.StatusCode >= 400 {
		return "", classifyStatus(resp.StatusCode, fmt.Errorf("gateway: status %d: %s", resp.StatusCode, truncate(string(body), 300)))
	}

	content, ok := contentFromChoices(body)
	if !ok {
		return "", fmt.Errorf("gateway: unexpected llm response: %s", truncate(string(body), 300))
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// contentFromChoices reads openai-style choices[0].message.content.
func contentFromChoices(body []byte) (string, bool) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		return "", false
	}
	return parsed.Choices[0].Message.Content, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
