package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN,required"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS" envSeparator:":"`
	AdminUserID      int64   `env:"ADMIN_USER"`

	// LLM settings
	LLMProvider      string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	OpenAIModel      string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH" envDefault:"prompts/system_prompt.txt"`

	// Storage
	DataDir            string `env:"DATA_DIR" envDefault:"data"`
	TranscriptFilePath string `env:"TRANSCRIPT_FILE_PATH" envDefault:"logs/chat.jsonl"`
	AccountsFilePath   string `env:"ACCOUNTS_FILE_PATH" envDefault:"data/accounts.json"`

	// Daily check-in reminder, cron syntax.
	ReminderCronSpec string `env:"REMINDER_CRON_SPEC" envDefault:"0 20 * * *"`

	// Google Calendar sync (optional)
	CalendarCredentialsPath string `env:"CALENDAR_CREDENTIALS_PATH"`
	CalendarTokenPath       string `env:"CALENDAR_TOKEN_PATH" envDefault:"data/calendar_token.json"`
	CalendarID              string `env:"CALENDAR_ID" envDefault:"primary"`

	// Formatting
	MessageParseMode string `env:"MESSAGE_PARSE_MODE" envDefault:"HTML"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
