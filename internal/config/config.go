// Package config provides configuration loading, validation, and management
// for the cotebot application. Values come from defaults, an optional YAML
// file and the environment (BOT_* variables plus a few legacy names).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "time/tzdata" // summary.timezone must resolve on hosts without zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Supported chat platforms.
const (
	PlatformDiscord  = "discord"
	PlatformTelegram = "telegram"
)

// Supported LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Report composition designs.
const (
	ReportModeZeroCount  = "zero_count"
	ReportModeOmitAbsent = "omit_absent"
)

// Report header styles.
const (
	HeaderTitle = "title"
	HeaderDate  = "date"
)

// Authorization store strategies.
const (
	AuthModeFile     = "file"
	AuthModeStatic   = "static"
	AuthModeDatabase = "database"
)

// Scheduled task names. They match the keys of the scheduler.tasks section.
const (
	TaskDailySummary    = "daily_summary"
	TaskMessageLogPrune = "message_log_prune"
	TaskSQLMaintenance  = "sql_maintenance"
)

// Config holds the complete application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Platform  string          `mapstructure:"platform"  validate:"oneof=discord telegram"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Commands  CommandsConfig  `mapstructure:"commands"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DiscordConfig holds Discord connection settings.
type DiscordConfig struct {
	Token            string `mapstructure:"token"`
	MaxMessageLength int    `mapstructure:"max_message_length" validate:"min=0"`
}

// TelegramConfig holds Telegram connection settings.
type TelegramConfig struct {
	Token            string `mapstructure:"token"`
	MaxMessageLength int    `mapstructure:"max_message_length" validate:"min=0"`
}

// LLMConfig selects and configures the language-model provider.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"    validate:"oneof=openai gemini anthropic"`
	APIKey      string  `mapstructure:"api_key"     validate:"required"`
	BaseURL     string  `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string  `mapstructure:"model"       validate:"required"`
	Temperature float32 `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxTokens   int     `mapstructure:"max_tokens"  validate:"min=1"`
}

// SummaryConfig configures the summarization pipeline.
type SummaryConfig struct {
	ReadChannelID  string        `mapstructure:"read_channel_id"  validate:"required"`
	WriteChannelID string        `mapstructure:"write_channel_id"`
	Keyword        string        `mapstructure:"keyword"`
	ReportMode     string        `mapstructure:"report_mode"      validate:"oneof=zero_count omit_absent"`
	Header         string        `mapstructure:"header"           validate:"oneof=title date"`
	Title          string        `mapstructure:"title"`
	Timezone       string        `mapstructure:"timezone"         validate:"required"`
	CallTimeout    time.Duration `mapstructure:"call_timeout"     validate:"min=1s,max=10m"`
	RunTimeout     time.Duration `mapstructure:"run_timeout"      validate:"min=1s,max=1h"`
	Concurrency    int           `mapstructure:"concurrency"      validate:"min=1,max=32"`
}

// AuthConfig selects the authorization store strategy.
type AuthConfig struct {
	Mode     string `mapstructure:"mode"      validate:"oneof=file static database"`
	FilePath string `mapstructure:"file_path"`
	UserIDs  string `mapstructure:"user_ids"`
}

// DatabaseConfig configures the sqlite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig holds the scheduled task definitions keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig defines one scheduled task. Schedule is either a wall-clock time
// "HH:MM" (daily) or a five-field cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// CommandsConfig holds the chat command words.
type CommandsConfig struct {
	Summarize string `mapstructure:"summarize" validate:"required"`
	OptIn     string `mapstructure:"opt_in"    validate:"required"`
	OptOut    string `mapstructure:"opt_out"   validate:"required"`
	List      string `mapstructure:"list"      validate:"required"`
}

// Words returns the configured command words.
func (c CommandsConfig) Words() []string {
	return []string{c.Summarize, c.OptIn, c.OptOut, c.List}
}

// MessagesConfig holds user-facing strings. OptedIn, OptedOut and Failed are
// format strings taking one %s argument.
type MessagesConfig struct {
	OptedIn        string `mapstructure:"opted_in"`
	OptedOut       string `mapstructure:"opted_out"`
	AuthImmutable  string `mapstructure:"auth_immutable"`
	AuthError      string `mapstructure:"auth_error"`
	TrackedHeader  string `mapstructure:"tracked_header"`
	NoTrackedUsers string `mapstructure:"no_tracked_users"`
	NoActivity     string `mapstructure:"no_activity"`
	ZeroCount      string `mapstructure:"zero_count"`
	TimedOut       string `mapstructure:"timed_out"`
	Failed         string `mapstructure:"failed"`
}

// legacyEnv maps configuration keys to the bare environment variable names
// used by earlier deployments. BOT_-prefixed names take precedence.
var legacyEnv = map[string][]string{
	"discord.token":            {"BOT_DISCORD_TOKEN", "DISCORD_TOKEN"},
	"telegram.token":           {"BOT_TELEGRAM_TOKEN", "TELEGRAM_TOKEN"},
	"llm.api_key":              {"BOT_LLM_API_KEY", "OPENAI_API_KEY"},
	"summary.read_channel_id":  {"BOT_SUMMARY_READ_CHANNEL_ID", "CHANNEL_ID"},
	"summary.write_channel_id": {"BOT_SUMMARY_WRITE_CHANNEL_ID", "WRITE_CHANNEL_ID"},
	"auth.user_ids":            {"BOT_AUTH_USER_IDS", "AUTHORIZED_USERS"},
}

// LoadConfig reads configuration from defaults, the YAML file at configPath
// (optional, missing file is not an error) and the environment, then validates it.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("%w: bind env for %s: %v", ErrConfiguration, key, err)
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
			}
			slog.Debug("configuration file loaded", "path", configPath)
		} else if os.IsNotExist(err) {
			slog.Info("configuration file not found, using defaults and environment", "path", configPath)
		} else {
			return nil, fmt.Errorf("%w: failed to stat config file: %v", ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("configuration loaded",
		"platform", cfg.Platform,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"auth_mode", cfg.Auth.Mode,
		"report_mode", cfg.Summary.ReportMode)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("platform", DefaultPlatform)
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.max_message_length", DefaultDiscordMaxMessageLength)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.max_message_length", DefaultTelegramMaxMessageLength)

	v.SetDefault("llm.provider", DefaultLLMProvider)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", DefaultLLMTemperature)
	v.SetDefault("llm.max_tokens", DefaultLLMMaxTokens)

	v.SetDefault("summary.read_channel_id", "")
	v.SetDefault("summary.write_channel_id", "")
	v.SetDefault("summary.keyword", "")
	v.SetDefault("summary.report_mode", DefaultSummaryReportMode)
	v.SetDefault("summary.header", DefaultSummaryHeader)
	v.SetDefault("summary.title", DefaultSummaryTitle)
	v.SetDefault("summary.timezone", DefaultSummaryTimezone)
	v.SetDefault("summary.call_timeout", DefaultSummaryCallTimeout)
	v.SetDefault("summary.run_timeout", DefaultSummaryRunTimeout)
	v.SetDefault("summary.concurrency", DefaultSummaryConcurrency)

	v.SetDefault("auth.mode", DefaultAuthMode)
	v.SetDefault("auth.file_path", DefaultAuthFilePath)
	v.SetDefault("auth.user_ids", "")

	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("scheduler.tasks."+TaskDailySummary+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskDailySummary+".schedule", DefaultDailySummarySchedule)
	v.SetDefault("scheduler.tasks."+TaskMessageLogPrune+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskMessageLogPrune+".schedule", DefaultPruneSchedule)
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".schedule", DefaultMaintenanceSchedule)

	v.SetDefault("commands.summarize", DefaultCommands.Summarize)
	v.SetDefault("commands.opt_in", DefaultCommands.OptIn)
	v.SetDefault("commands.opt_out", DefaultCommands.OptOut)
	v.SetDefault("commands.list", DefaultCommands.List)

	v.SetDefault("messages.opted_in", DefaultMessages.OptedIn)
	v.SetDefault("messages.opted_out", DefaultMessages.OptedOut)
	v.SetDefault("messages.auth_immutable", DefaultMessages.AuthImmutable)
	v.SetDefault("messages.auth_error", DefaultMessages.AuthError)
	v.SetDefault("messages.tracked_header", DefaultMessages.TrackedHeader)
	v.SetDefault("messages.no_tracked_users", DefaultMessages.NoTrackedUsers)
	v.SetDefault("messages.no_activity", DefaultMessages.NoActivity)
	v.SetDefault("messages.zero_count", DefaultMessages.ZeroCount)
	v.SetDefault("messages.timed_out", DefaultMessages.TimedOut)
	v.SetDefault("messages.failed", DefaultMessages.Failed)
}

// Validate checks struct constraints and cross-field rules, and fills in
// values derived from other fields (write channel, platform message limit).
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModels[c.LLM.Provider]
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if prefixes, ok := modelPrefixes[c.LLM.Provider]; ok && !hasAnyPrefix(c.LLM.Model, prefixes) {
		return fmt.Errorf("%w: llm.model %q is not a %s model", ErrConfiguration, c.LLM.Model, c.LLM.Provider)
	}

	switch c.Platform {
	case PlatformDiscord:
		if c.Discord.Token == "" {
			return fmt.Errorf("%w: discord.token is required for the discord platform", ErrConfiguration)
		}
		if c.Discord.MaxMessageLength == 0 {
			c.Discord.MaxMessageLength = DefaultDiscordMaxMessageLength
		}
	case PlatformTelegram:
		if c.Telegram.Token == "" {
			return fmt.Errorf("%w: telegram.token is required for the telegram platform", ErrConfiguration)
		}
		if c.Telegram.MaxMessageLength == 0 {
			c.Telegram.MaxMessageLength = DefaultTelegramMaxMessageLength
		}
	}

	if c.Auth.Mode == AuthModeStatic && strings.TrimSpace(c.Auth.UserIDs) == "" {
		return fmt.Errorf("%w: auth.user_ids is required in static mode", ErrConfiguration)
	}
	if c.Auth.Mode == AuthModeFile && c.Auth.FilePath == "" {
		return fmt.Errorf("%w: auth.file_path is required in file mode", ErrConfiguration)
	}

	if c.Summary.CallTimeout > c.Summary.RunTimeout {
		return fmt.Errorf("%w: summary.call_timeout (%s) exceeds summary.run_timeout (%s)",
			ErrConfiguration, c.Summary.CallTimeout, c.Summary.RunTimeout)
	}
	if _, err := time.LoadLocation(c.Summary.Timezone); err != nil {
		return fmt.Errorf("%w: invalid summary.timezone %q: %v", ErrConfiguration, c.Summary.Timezone, err)
	}
	if c.Summary.WriteChannelID == "" {
		c.Summary.WriteChannelID = c.Summary.ReadChannelID
	}

	return nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Location returns the time zone used to compute the activity window.
// Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Summary.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// MaxMessageLength returns the message size limit of the configured platform.
func (c *Config) MaxMessageLength() int {
	if c.Platform == PlatformTelegram {
		return c.Telegram.MaxMessageLength
	}
	return c.Discord.MaxMessageLength
}

// UsesDatabase reports whether the configuration needs the sqlite database.
func (c *Config) UsesDatabase() bool {
	return c.Platform == PlatformTelegram || c.Auth.Mode == AuthModeDatabase
}
