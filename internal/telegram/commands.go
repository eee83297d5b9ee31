package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-skincoach/internal/affordance"
	"ai-skincoach/internal/auth"
	"ai-skincoach/internal/domain"
	"ai-skincoach/internal/store"
)

const helpText = `I'm your skincare advisor. Tell me about your skin and I'll suggest products, routines and treatments you can apply with one tap.

Commands:
/routines - show your current routines
/cabinet - show your product cabinet
/refresh - reload your data
/reset - start the conversation over`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	switch msg.Command() {
	case "start":
		if err := b.authSvc.Upsert(auth.User{
			ID:        userID,
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
		}); err != nil {
			log.Printf("failed to record user %d: %v", userID, err)
		}
		if err := b.store.RefreshData(ctx, userID); err != nil {
			log.Printf("initial refresh for %d failed: %v", userID, err)
		}
		b.sendFormatted(msg.Chat.ID, helpText)
	case "help":
		b.sendFormatted(msg.Chat.ID, helpText)
	case "reset":
		if err := b.transcript.Reset(userID); err != nil {
			log.Printf("failed to reset transcript for %d: %v", userID, err)
			b.sendMessage(msg.Chat.ID, "Sorry, I couldn't reset the conversation.")
			return
		}
		b.sendMessage(msg.Chat.ID, "Conversation reset. What's on your mind?")
	case "refresh":
		store.RequestRefresh(userID)
		b.sendMessage(msg.Chat.ID, "Reloading your data.")
	case "routines":
		b.sendMessage(msg.Chat.ID, formatRoutines(b.store.Snapshot(userID).Routines))
	case "cabinet":
		snap := b.store.Snapshot(userID)
		b.sendMessage(msg.Chat.ID, formatCabinet(snap))
	case "allow":
		b.handleAllow(msg, true)
	case "deny":
		b.handleAllow(msg, false)
	default:
		b.sendMessage(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleAllow(msg *tgbotapi.Message, allow bool) {
	if msg.From.ID != b.adminUserID {
		b.sendMessage(msg.Chat.ID, "Only the admin can manage access.")
		return
	}
	target, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.sendMessage(msg.Chat.ID, "Usage: /allow <user id> or /deny <user id>")
		return
	}
	if allow {
		if err := b.authSvc.Upsert(auth.User{ID: target}); err != nil {
			log.Printf("failed to allow %d: %v", target, err)
			b.sendMessage(msg.Chat.ID, "Sorry, that didn't stick.")
			return
		}
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("User %d can now chat with me.", target))
		return
	}
	if err := b.authSvc.Remove(target); err != nil {
		log.Printf("failed to deny %d: %v", target, err)
		b.sendMessage(msg.Chat.ID, "Sorry, that didn't stick.")
		return
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf("User %d removed.", target))
}

func formatRoutines(routines []domain.Routine) string {
	var active []domain.Routine
	for _, r := range routines {
		if r.IsActive {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return "You don't have any active routines yet. Ask me to build one!"
	}
	var sb strings.Builder
	for _, r := range active {
		fmt.Fprintf(&sb, "%s (%s)\n", r.Name, r.Type)
		for _, step := range r.Steps {
			fmt.Fprintf(&sb, "  %d. %s\n", step.StepOrder, step.Instructions)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatCabinet(snap store.Snapshot) string {
	if len(snap.Inventory) == 0 {
		return "Your cabinet is empty. Ask me for product suggestions!"
	}
	byID := make(map[string]domain.Product, len(snap.Products))
	for _, p := range snap.Products {
		byID[p.ID] = p
	}
	var sb strings.Builder
	for _, it := range snap.Inventory {
		p := byID[it.ProductID]
		name := p.Name
		if name == "" {
			name = "Unknown product"
		}
		fmt.Fprintf(&sb, "%s by %s: %d%% left\n", name, p.Brand, it.AmountRemaining)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// SendCheckInReminder pings every known user whose check-in for today is
// still incomplete. Wired to the daily scheduler.
func (b *Bot) SendCheckInReminder(ctx context.Context) error {
	today := domain.Today(b.now())
	for _, u := range b.authSvc.List() {
		chatID, ok := b.chatFor(u.ID)
		if !ok {
			continue
		}
		snap := b.store.Snapshot(u.ID)
		if affordance.RoutineDone(snap.CheckIns, today, "morning") &&
			affordance.RoutineDone(snap.CheckIns, today, "evening") {
			continue
		}
		b.sendMessage(chatID, "How is your skin today? Don't forget to log your check-in.")
	}
	return nil
}

func (b *Bot) sendFormatted(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if b.parseMode != "" {
		msg.ParseMode = b.parseMode
	}
	if _, err := b.out.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}
