package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"ai-skincoach/internal/auth"
	"ai-skincoach/internal/backend"
	"ai-skincoach/internal/config"
	"ai-skincoach/internal/dispatch"
	"ai-skincoach/internal/gcal"
	"ai-skincoach/internal/llm"
	"ai-skincoach/internal/scheduler"
	"ai-skincoach/internal/store"
	"ai-skincoach/internal/telegram"
	"ai-skincoach/internal/transcript"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	var accountsRepo auth.Repository
	if cfg.AccountsFilePath != "" {
		repo, err := auth.NewFileRepository(cfg.AccountsFilePath)
		if err != nil {
			log.Printf("failed to init accounts repo: %v", err)
		} else {
			accountsRepo = repo
		}
	}
	authSvc, err := auth.NewWithRepo(accountsRepo, cfg.AllowedUsers)
	if err != nil {
		log.Fatalf("failed to init auth: %v", err)
	}

	be, err := backend.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to init data store: %v", err)
	}
	st := store.New(be)
	stopRefresh := st.ListenRefresh()
	defer stopRefresh()

	factory := &llm.Factory{
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
	llmClient, err := factory.CreateClient(cfg.LLMProvider, cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	systemPrompt := readSystemPrompt(cfg.SystemPromptPath)

	chatLog, err := transcript.Open(cfg.TranscriptFilePath)
	if err != nil {
		log.Fatalf("failed to open transcript: %v", err)
	}

	dispatcher := dispatch.New(st, be, authSvc)
	if cfg.CalendarCredentialsPath != "" {
		syncer, err := gcal.NewFromFiles(context.Background(),
			cfg.CalendarCredentialsPath, cfg.CalendarTokenPath, cfg.CalendarID)
		if err != nil {
			log.Printf("calendar sync disabled: %v", err)
		} else {
			dispatcher.SetCalendar(syncer)
			log.Printf("calendar sync enabled for %q", cfg.CalendarID)
		}
	}

	bot, err := telegram.New(
		cfg.TelegramBotToken,
		authSvc,
		cfg.AdminUserID,
		llmClient,
		systemPrompt,
		cfg.MessageParseMode,
		chatLog,
		st,
		dispatcher,
	)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	sched := scheduler.New(cfg.ReminderCronSpec)
	sched.SetReminderFunction(bot.SendCheckInReminder)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	bot.Start(context.Background())
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("failed to read system prompt: %v", err)
		return ""
	}
	return string(data)
}
