// Package llm provides a single-shot completion interface over the supported
// language-model backends.
package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/cotebot/internal/config"
)

// Client produces one completion for a system instruction and a user prompt.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// NewClient creates the Client selected by cfg.Provider.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger.Info("Initializing LLM client", "provider", cfg.Provider, "model", cfg.Model)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return newOpenAIClient(cfg, logger), nil
	case config.ProviderGemini:
		client, err := newGeminiClient(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client, nil
	case config.ProviderAnthropic:
		return newAnthropicClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider specified: %s", cfg.Provider)
	}
}
