package telegram

import (
	"context"
	"io"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-skincoach/internal/actions"
	"ai-skincoach/internal/affordance"
	"ai-skincoach/internal/domain"
	"ai-skincoach/internal/llm"
	"ai-skincoach/internal/stream"
	"ai-skincoach/internal/transcript"
)

// editInterval throttles the progressive edits so a fast stream does not
// hit Telegram's per-chat rate limit.
const editInterval = 900 * time.Millisecond

const placeholderText = "…"

const apologyText = "Sorry, I lost the connection mid-reply. The part above is everything I received."

// processMessage runs one full advisor turn: persist the user message,
// stream the reply into a progressively edited Telegram message, persist
// the settled content and attach the action keyboard.
func (b *Bot) processMessage(ctx context.Context, chatID, userID int64, text string) {
	if _, err := b.transcript.Append(userID, transcript.RoleUser, text); err != nil {
		log.Printf("failed to persist user message: %v", err)
	}

	placeholder, err := b.out.Send(tgbotapi.NewMessage(chatID, placeholderText))
	if err != nil {
		log.Printf("failed to send placeholder: %v", err)
		return
	}
	tgMsgID := placeholder.MessageID

	lastEdit := time.Time{}
	lastShown := ""
	onBuffer := func(full string) {
		if time.Since(lastEdit) < editInterval {
			return
		}
		display := actions.Parse(full).DisplayText
		if display == "" || display == lastShown {
			return
		}
		lastEdit = time.Now()
		lastShown = display
		if _, err := b.out.Send(tgbotapi.NewEditMessageText(chatID, tgMsgID, display)); err != nil {
			log.Printf("failed to edit streaming message: %v", err)
		}
	}

	content, streamErr := stream.Run(ctx, b.chunkSource(ctx, userID), onBuffer)
	if streamErr != nil {
		log.Printf("advisor stream failed for %d: %v", userID, streamErr)
	}

	// The settled content is persisted even when the stream broke off, so
	// any fully received actions stay confirmable.
	entry, err := b.transcript.Append(userID, transcript.RoleAssistant, content)
	if err != nil {
		log.Printf("failed to persist assistant message: %v", err)
	} else {
		b.rememberSent(tgMsgID, userID, entry.ID)
	}

	b.renderFinal(chatID, tgMsgID, userID, content)
	if streamErr != nil {
		b.sendMessage(chatID, apologyText)
	}
}

// chunkSource bridges the push-style llm stream into the pull-style
// assembler loop.
func (b *Bot) chunkSource(ctx context.Context, userID int64) stream.ChunkSource {
	chunks := make(chan string)
	errc := make(chan error, 1)
	go func() {
		_, err := b.llmClient.GenerateStream(ctx, b.contextMessages(userID), func(delta string) error {
			select {
			case chunks <- delta:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		errc <- err
		close(chunks)
	}()
	return func(ctx context.Context) (string, error) {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				if err := <-errc; err != nil {
					return "", err
				}
				return "", io.EOF
			}
			return chunk, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (b *Bot) contextMessages(userID int64) []llm.Message {
	var msgs []llm.Message
	if b.systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: b.systemPrompt})
	}
	for _, m := range b.transcript.Messages(userID) {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}

// renderFinal replaces the streamed message with the settled display text
// and the affordance keyboard.
func (b *Bot) renderFinal(chatID int64, tgMsgID int, userID int64, content string) {
	parsed := actions.Parse(content)
	display := parsed.DisplayText
	if display == "" {
		display = placeholderText
	}
	edit := tgbotapi.NewEditMessageText(chatID, tgMsgID, display)
	if len(parsed.Actions) > 0 {
		kb := affordance.Keyboard(tgMsgID, parsed.Actions, b.doneState(userID, tgMsgID))
		edit.ReplyMarkup = &kb
	}
	if _, err := b.out.Send(edit); err != nil {
		log.Printf("failed to render final message: %v", err)
	}
}

// doneState decides whether an affordance renders in its terminal state.
// Persisted handled flags win, routine completions are recomputed from
// today's check-in, and everything else falls back to the transient flash.
func (b *Bot) doneState(userID int64, messageID int) func(a actions.Action) bool {
	return func(a actions.Action) bool {
		if handled(a) {
			return true
		}
		if a.Kind == actions.KindRoutineAction {
			snap := b.store.Snapshot(userID)
			return affordance.RoutineDone(snap.CheckIns, domain.Today(b.now()), a.Complete.Type)
		}
		return b.tracker.State(affordance.Key(messageID, a)) == affordance.Done
	}
}

// handled reads the persisted completion flag out of the payload.
func handled(a actions.Action) bool {
	switch a.Kind {
	case actions.KindProduct:
		return a.Product.Added
	case actions.KindRoutine:
		return a.Routine.Completed
	case actions.KindTreatment:
		return a.Treatment.Completed
	case actions.KindGoal:
		return a.Goal.Completed
	case actions.KindRoutineAction:
		return a.Complete.Completed
	case actions.KindCabinetAction:
		return a.Cabinet.Added
	case actions.KindAppointmentAction:
		return a.Appointment.Completed
	case actions.KindCheckinAction:
		return a.Checkin.Completed
	case actions.KindWeeklyRoutine:
		return a.Weekly.Completed
	}
	return false
}
