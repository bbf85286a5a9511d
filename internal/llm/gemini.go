package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/edgard/cotebot/internal/config"
)

type geminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	logger      *slog.Logger
}

func newGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*geminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	gi, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiClient{
		client:      gi,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   int32(cfg.MaxTokens),
		logger:      logger.With("component", "gemini_client"),
	}, nil
}

func (c *geminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	temperature := c.temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		MaxOutputTokens:   c.maxTokens,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	}
	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("gemini API error (code %d): %w", apiErr.Code, err)
		}
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	c.logger.DebugContext(ctx, "Completion received", "model", c.model)
	return text, nil
}
