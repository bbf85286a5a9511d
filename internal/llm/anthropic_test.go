package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgard/cotebot/internal/config"
)

func TestAnthropicComplete(t *testing.T) {
	t.Parallel()

	var gotReq struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "  - 총 1문제\n- 백준 1000  "}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), config.LLMConfig{
		Provider:  config.ProviderAnthropic,
		APIKey:    "a-test",
		BaseURL:   srv.URL,
		Model:     config.DefaultAnthropicModel,
		MaxTokens: 64,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	got, err := client.Complete(context.Background(), "system text", "user text")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "- 총 1문제\n- 백준 1000" {
		t.Errorf("Complete() = %q", got)
	}
	if gotReq.Model != config.DefaultAnthropicModel || gotReq.MaxTokens != 64 {
		t.Errorf("request model/max_tokens = %q/%d", gotReq.Model, gotReq.MaxTokens)
	}
	if len(gotReq.System) != 1 || gotReq.System[0].Text != "system text" {
		t.Errorf("system = %+v", gotReq.System)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" ||
		len(gotReq.Messages[0].Content) != 1 || gotReq.Messages[0].Content[0].Text != "user text" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestAnthropicCompleteAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "invalid_request_error", "message": "bad model"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), config.LLMConfig{
		Provider:  config.ProviderAnthropic,
		APIKey:    "a-test",
		BaseURL:   srv.URL,
		Model:     config.DefaultAnthropicModel,
		MaxTokens: 64,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Error("Complete() error = nil, want API error")
	}
}
