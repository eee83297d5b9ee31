package telegram

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-skincoach/internal/actions"
	"ai-skincoach/internal/affordance"
	"ai-skincoach/internal/store"
)

// handleCallback resolves a button press back to its action by re-parsing
// the stored message content, dispatches it, and on success splices the
// handled flag into the transcript so the terminal state survives reloads.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	messageID, kind, index, ok := affordance.ParseCallback(cb.Data)
	if !ok {
		b.answerCallback(cb.ID, "")
		return
	}
	userID := cb.From.ID
	if cb.Message != nil {
		b.rememberChat(userID, cb.Message.Chat.ID)
	}

	sm, ok := b.lookupSent(messageID)
	if !ok || sm.userID != userID {
		b.answerCallback(cb.ID, "That suggestion has expired.")
		return
	}
	entry, ok := b.transcript.Get(userID, sm.transcriptID)
	if !ok {
		b.answerCallback(cb.ID, "That suggestion has expired.")
		return
	}

	action, ok := findAction(entry.Content, kind, index)
	if !ok {
		b.answerCallback(cb.ID, "That suggestion has expired.")
		return
	}

	if handled(action) {
		b.answerCallback(cb.ID, "Already done.")
		return
	}

	key := affordance.Key(messageID, action)
	if !b.tracker.Begin(key) {
		// Double click while the first dispatch is still settling.
		b.answerCallback(cb.ID, "Working on it…")
		return
	}

	res := b.dispatcher.Dispatch(ctx, userID, action)
	if !res.Success {
		b.tracker.Fail(key)
		b.answerCallback(cb.ID, res.Message)
		return
	}
	b.tracker.Finish(key)

	if rewritten, changed := actions.MarkHandled(entry.Content, action); changed {
		if err := b.transcript.RewriteContent(userID, entry.ID, rewritten); err != nil {
			log.Printf("failed to rewrite transcript entry %s: %v", entry.ID, err)
		} else {
			entry.Content = rewritten
		}
	}

	if cb.Message != nil {
		b.refreshKeyboard(cb.Message.Chat.ID, messageID, userID, entry.Content)
	}
	b.answerCallback(cb.ID, res.Message)
	store.RequestRefresh(userID)
}

// refreshKeyboard re-renders the affordance keyboard from the (possibly
// rewritten) stored content.
func (b *Bot) refreshKeyboard(chatID int64, messageID int, userID int64, content string) {
	parsed := actions.Parse(content)
	if len(parsed.Actions) == 0 {
		return
	}
	kb := affordance.Keyboard(messageID, parsed.Actions, b.doneState(userID, messageID))
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, kb)
	if _, err := b.out.Send(edit); err != nil {
		log.Printf("failed to refresh keyboard: %v", err)
	}
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.out.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
}

func findAction(content string, kind actions.Kind, index int) (actions.Action, bool) {
	for _, a := range actions.Parse(content).Actions {
		if a.Kind == kind && a.Index == index {
			return a, true
		}
	}
	return actions.Action{}, false
}
