package config

import "time"

// Default values for configuration.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultPlatform = PlatformDiscord

	DefaultLLMProvider    = ProviderOpenAI
	DefaultLLMTemperature = 0.2
	DefaultLLMMaxTokens   = 1024

	DefaultOpenAIModel    = "gpt-3.5-turbo"
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"

	DefaultSummaryCallTimeout = 60 * time.Second
	DefaultSummaryRunTimeout  = 300 * time.Second
	DefaultSummaryConcurrency = 1
	DefaultSummaryTimezone    = "Asia/Seoul"
	DefaultSummaryReportMode  = ReportModeZeroCount
	DefaultSummaryHeader      = HeaderTitle
	DefaultSummaryTitle       = "오늘의 코딩 테스트 활동 요약:"

	DefaultAuthMode     = AuthModeFile
	DefaultAuthFilePath = "authorized_users.json"

	DefaultDatabasePath = "storage.db"

	DefaultDailySummarySchedule = "09:05"
	DefaultPruneSchedule        = "00:05"
	DefaultMaintenanceSchedule  = "0 4 * * 0"

	DefaultDiscordMaxMessageLength  = 2000
	DefaultTelegramMaxMessageLength = 4096
)

// defaultModels is the model used when llm.model is left empty.
var defaultModels = map[string]string{
	ProviderOpenAI:    DefaultOpenAIModel,
	ProviderGemini:    DefaultGeminiModel,
	ProviderAnthropic: DefaultAnthropicModel,
}

// modelPrefixes lists the model name prefixes each native API serves. OpenAI
// is absent because base_url may point at any compatible server.
var modelPrefixes = map[string][]string{
	ProviderGemini:    {"gemini-", "models/gemini-"},
	ProviderAnthropic: {"claude-"},
}

// DefaultCommands are the chat commands understood by the bot.
var DefaultCommands = CommandsConfig{
	Summarize: "!요약",
	OptIn:     "!인증",
	OptOut:    "!인증취소",
	List:      "!인증목록",
}

// DefaultMessages are the user-facing replies and report strings.
var DefaultMessages = MessagesConfig{
	OptedIn:        "%s님이 인증되었습니다.",
	OptedOut:       "%s님의 인증이 취소되었습니다.",
	AuthImmutable:  "인증 목록은 설정 파일로 관리됩니다.",
	AuthError:      "인증 정보를 저장하지 못했습니다. 잠시 후 다시 시도해주세요.",
	TrackedHeader:  "인증된 유저 목록:",
	NoTrackedUsers: "인증된 유저가 없습니다.",
	NoActivity:     "오늘은 인증된 유저들의 코딩 테스트 활동이 없었습니다.",
	ZeroCount:      "- 총 0문제",
	TimedOut:       "요청 시간이 초과되었습니다.",
	Failed:         "오류: %s",
}
