// Package telegram is the chat surface: it runs the advisor conversation
// with progressive streaming edits, renders parsed actions as inline
// keyboard affordances and routes button presses into the dispatcher.
package telegram

import (
	"context"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-skincoach/internal/affordance"
	"ai-skincoach/internal/auth"
	"ai-skincoach/internal/dispatch"
	"ai-skincoach/internal/llm"
	"ai-skincoach/internal/store"
	"ai-skincoach/internal/transcript"
)

// sentMessage ties a delivered Telegram message back to its transcript
// entry so callbacks can re-parse the stored content.
type sentMessage struct {
	userID       int64
	transcriptID string
}

type Bot struct {
	api          *tgbotapi.BotAPI
	out          sender
	authSvc      *auth.Service
	adminUserID  int64
	llmClient    llm.Client
	systemPrompt string
	parseMode    string
	transcript   *transcript.Log
	store        *store.Store
	dispatcher   *dispatch.Dispatcher
	tracker      *affordance.Tracker
	now          func() time.Time

	mu    sync.Mutex
	sent  map[int]sentMessage // telegram message ID -> transcript entry
	chats map[int64]int64     // user ID -> last seen chat ID
}

func New(
	botToken string,
	authSvc *auth.Service,
	adminUserID int64,
	llmClient llm.Client,
	systemPrompt string,
	parseMode string,
	chatLog *transcript.Log,
	st *store.Store,
	d *dispatch.Dispatcher,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := newBot(authSvc, adminUserID, llmClient, systemPrompt, parseMode, chatLog, st, d)
	b.api = api
	b.out = botAPISender{api: api}
	return b, nil
}

func newBot(
	authSvc *auth.Service,
	adminUserID int64,
	llmClient llm.Client,
	systemPrompt string,
	parseMode string,
	chatLog *transcript.Log,
	st *store.Store,
	d *dispatch.Dispatcher,
) *Bot {
	return &Bot{
		authSvc:      authSvc,
		adminUserID:  adminUserID,
		llmClient:    llmClient,
		systemPrompt: systemPrompt,
		parseMode:    parseMode,
		transcript:   chatLog,
		store:        st,
		dispatcher:   d,
		tracker:      affordance.NewTracker(),
		now:          time.Now,
		sent:         make(map[int]sentMessage),
		chats:        make(map[int64]int64),
	}
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil {
			b.handleIncomingMessage(ctx, update.Message)
			continue
		}
		if update.CallbackQuery != nil {
			b.handleCallback(ctx, update.CallbackQuery)
			continue
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	b.rememberChat(userID, msg.Chat.ID)

	if !b.authSvc.IsAllowed(userID) {
		log.Printf("unauthorized message from %d (@%s)", userID, msg.From.UserName)
		b.sendMessage(msg.Chat.ID, "You're not on the list yet. Ask the admin to add you.")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	log.Printf("incoming message from %d (@%s): %q", userID, msg.From.UserName, msg.Text)
	b.processMessage(ctx, msg.Chat.ID, userID, msg.Text)
}

func (b *Bot) rememberChat(userID, chatID int64) {
	b.mu.Lock()
	b.chats[userID] = chatID
	b.mu.Unlock()
}

func (b *Bot) chatFor(userID int64) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	chatID, ok := b.chats[userID]
	return chatID, ok
}

func (b *Bot) rememberSent(messageID int, userID int64, transcriptID string) {
	b.mu.Lock()
	b.sent[messageID] = sentMessage{userID: userID, transcriptID: transcriptID}
	b.mu.Unlock()
}

func (b *Bot) lookupSent(messageID int) (sentMessage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sm, ok := b.sent[messageID]
	return sm, ok
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}
