package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "discord-token")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CHANNEL_ID", "1111")
}

func TestLoadConfigDefaultsAndLegacyEnv(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Platform != PlatformDiscord {
		t.Errorf("Platform = %q, want %q", cfg.Platform, PlatformDiscord)
	}
	if cfg.Discord.Token != "discord-token" {
		t.Errorf("Discord.Token = %q", cfg.Discord.Token)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("LLM.APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.Summary.ReadChannelID != "1111" || cfg.Summary.WriteChannelID != "1111" {
		t.Errorf("channels = %q/%q, want write channel to default to read channel",
			cfg.Summary.ReadChannelID, cfg.Summary.WriteChannelID)
	}
	if cfg.LLM.Model != DefaultOpenAIModel {
		t.Errorf("LLM.Model = %q, want %q", cfg.LLM.Model, DefaultOpenAIModel)
	}
	if cfg.Summary.CallTimeout != 60*time.Second {
		t.Errorf("CallTimeout = %s, want 60s", cfg.Summary.CallTimeout)
	}
	if cfg.Summary.RunTimeout != 300*time.Second {
		t.Errorf("RunTimeout = %s, want 300s", cfg.Summary.RunTimeout)
	}
	if cfg.Summary.ReportMode != ReportModeZeroCount {
		t.Errorf("ReportMode = %q", cfg.Summary.ReportMode)
	}
	if cfg.MaxMessageLength() != DefaultDiscordMaxMessageLength {
		t.Errorf("MaxMessageLength() = %d", cfg.MaxMessageLength())
	}
	task, ok := cfg.Scheduler.Tasks[TaskDailySummary]
	if !ok || !task.Enabled || task.Schedule != "09:05" {
		t.Errorf("daily summary task = %+v (present=%v)", task, ok)
	}
	if cfg.Commands.OptOut != "!인증취소" {
		t.Errorf("Commands.OptOut = %q", cfg.Commands.OptOut)
	}
	if cfg.UsesDatabase() {
		t.Error("UsesDatabase() = true for discord with file auth")
	}
}

func TestLoadConfigPrefixedEnvOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("BOT_SUMMARY_WRITE_CHANNEL_ID", "2222")
	t.Setenv("BOT_SUMMARY_CALL_TIMEOUT", "30s")
	t.Setenv("BOT_SUMMARY_REPORT_MODE", ReportModeOmitAbsent)
	t.Setenv("BOT_SUMMARY_CONCURRENCY", "4")
	t.Setenv("BOT_LLM_API_KEY", "sk-prefixed")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Summary.WriteChannelID != "2222" {
		t.Errorf("WriteChannelID = %q, want 2222", cfg.Summary.WriteChannelID)
	}
	if cfg.Summary.CallTimeout != 30*time.Second {
		t.Errorf("CallTimeout = %s, want 30s", cfg.Summary.CallTimeout)
	}
	if cfg.Summary.ReportMode != ReportModeOmitAbsent {
		t.Errorf("ReportMode = %q", cfg.Summary.ReportMode)
	}
	if cfg.Summary.Concurrency != 4 {
		t.Errorf("Concurrency = %d", cfg.Summary.Concurrency)
	}
	if cfg.LLM.APIKey != "sk-prefixed" {
		t.Errorf("LLM.APIKey = %q, want prefixed variable to win", cfg.LLM.APIKey)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
platform: telegram
telegram:
  token: "123:abc"
summary:
  read_channel_id: "-100123"
  header: date
auth:
  mode: static
  user_ids: "1, 2, 3"
scheduler:
  tasks:
    daily_summary:
      schedule: "21:30"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Platform != PlatformTelegram || cfg.Telegram.Token != "123:abc" {
		t.Errorf("telegram settings not loaded: %+v", cfg.Telegram)
	}
	if cfg.MaxMessageLength() != DefaultTelegramMaxMessageLength {
		t.Errorf("MaxMessageLength() = %d", cfg.MaxMessageLength())
	}
	if cfg.Summary.Header != HeaderDate {
		t.Errorf("Header = %q", cfg.Summary.Header)
	}
	if cfg.Auth.Mode != AuthModeStatic || cfg.Auth.UserIDs != "1, 2, 3" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	task := cfg.Scheduler.Tasks[TaskDailySummary]
	if task.Schedule != "21:30" || !task.Enabled {
		t.Errorf("daily summary task = %+v, want file schedule merged with default enabled flag", task)
	}
	if !cfg.UsesDatabase() {
		t.Error("UsesDatabase() = false for telegram")
	}
}

func TestLoadConfigProviderDefaultModel(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{provider: ProviderOpenAI, want: DefaultOpenAIModel},
		{provider: ProviderGemini, want: DefaultGeminiModel},
		{provider: ProviderAnthropic, want: DefaultAnthropicModel},
		{provider: ProviderGemini, model: "gemini-1.5-pro", want: "gemini-1.5-pro"},
		{provider: ProviderOpenAI, model: "llama3", want: "llama3"},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.model, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("BOT_LLM_PROVIDER", tt.provider)
			t.Setenv("BOT_LLM_MODEL", tt.model)

			cfg, err := LoadConfig("")
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if cfg.LLM.Model != tt.want {
				t.Errorf("LLM.Model = %q, want %q", cfg.LLM.Model, tt.want)
			}
		})
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing discord token",
			env:  map[string]string{"OPENAI_API_KEY": "k", "CHANNEL_ID": "1"},
		},
		{
			name: "missing read channel",
			env:  map[string]string{"DISCORD_TOKEN": "t", "OPENAI_API_KEY": "k"},
		},
		{
			name: "missing llm key",
			env:  map[string]string{"DISCORD_TOKEN": "t", "CHANNEL_ID": "1"},
		},
		{
			name: "static mode without users",
			env: map[string]string{
				"DISCORD_TOKEN": "t", "OPENAI_API_KEY": "k", "CHANNEL_ID": "1",
				"BOT_AUTH_MODE": AuthModeStatic,
			},
		},
		{
			name: "call timeout above run timeout",
			env: map[string]string{
				"DISCORD_TOKEN": "t", "OPENAI_API_KEY": "k", "CHANNEL_ID": "1",
				"BOT_SUMMARY_CALL_TIMEOUT": "5m", "BOT_SUMMARY_RUN_TIMEOUT": "1m",
			},
		},
		{
			name: "unknown report mode",
			env: map[string]string{
				"DISCORD_TOKEN": "t", "OPENAI_API_KEY": "k", "CHANNEL_ID": "1",
				"BOT_SUMMARY_REPORT_MODE": "sometimes",
			},
		},
		{
			name: "openai model with anthropic provider",
			env: map[string]string{
				"DISCORD_TOKEN": "t", "OPENAI_API_KEY": "k", "CHANNEL_ID": "1",
				"BOT_LLM_PROVIDER": ProviderAnthropic, "BOT_LLM_MODEL": "gpt-3.5-turbo",
			},
		},
		{
			name: "unknown timezone",
			env: map[string]string{
				"DISCORD_TOKEN": "t", "OPENAI_API_KEY": "k", "CHANNEL_ID": "1",
				"BOT_SUMMARY_TIMEZONE": "Mars/Olympus",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"DISCORD_TOKEN", "OPENAI_API_KEY", "CHANNEL_ID"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig("")
			if err == nil {
				t.Fatal("LoadConfig() error = nil, want validation error")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("error %v does not wrap ErrConfiguration", err)
			}
		})
	}
}
