package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/edgard/cotebot/internal/config"
)

type openAIClient struct {
	client      *gopenai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *slog.Logger
}

func newOpenAIClient(cfg config.LLMConfig, logger *slog.Logger) *openAIClient {
	aiConfig := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		aiConfig.BaseURL = cfg.BaseURL
	}

	return &openAIClient{
		client:      gopenai.NewClientWithConfig(aiConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger.With("component", "openai_client"),
	}
}

func (c *openAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []gopenai.ChatCompletionMessage{
		{Role: gopenai.ChatMessageRoleSystem, Content: system},
		{Role: gopenai.ChatMessageRoleUser, Content: user},
	}

	resp, err := c.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("openai request timed out: %w", err)
		}
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from openai")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.DebugContext(ctx, "Completion received", "model", c.model, "total_tokens", resp.Usage.TotalTokens)
	return text, nil
}
