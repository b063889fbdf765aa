package llm

import (
	"context"
	"fmt"

	"sales-auditor-go/internal/config"
	"sales-auditor-go/internal/logger"
)

// New builds the configured backend wrapped in the retry policy.
func New(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (Client, error) {
	var (
		c   Client
		err error
	)
	switch cfg.Provider {
	case "gemini":
		c, err = NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature, cfg.Timeout())
	case "openai":
		c, err = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature, cfg.Timeout())
	case "gateway":
		c, err = NewGateway(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Temperature, cfg.Timeout(), log)
	case "anthropic", "ollama", "mistral", "groq", "deepseek":
		c, err = NewAnyLLM(cfg.Provider, cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature, cfg.Timeout())
	case "mock":
		c = Demo{}
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(c, RetryPolicy{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.InitialBackoff(),
		MaxElapsedTime:  cfg.MaxElapsed(),
	}, log), nil
}
