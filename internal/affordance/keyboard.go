package affordance

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-skincoach/internal/actions"
)

// callbackPrefix tags our callback queries; anything else is ignored.
const callbackPrefix = "act"

// maxLabel keeps button captions readable on narrow screens.
const maxLabel = 40

// CallbackData encodes the action identity for a button press. Telegram
// limits callback data to 64 bytes, so only the coordinates travel; the
// action itself is re-parsed from the stored message on the way back.
func CallbackData(messageID int, a actions.Action) string {
	return fmt.Sprintf("%s|%d|%s|%d", callbackPrefix, messageID, a.Kind, a.Index)
}

// ParseCallback decodes CallbackData. ok is false for foreign callbacks.
func ParseCallback(data string) (messageID int, kind actions.Kind, index int, ok bool) {
	parts := strings.Split(data, "|")
	if len(parts) != 4 || parts[0] != callbackPrefix {
		return 0, "", 0, false
	}
	messageID, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, "", 0, false
	}
	index, err = strconv.Atoi(parts[3])
	if err != nil {
		return 0, "", 0, false
	}
	return messageID, actions.Kind(parts[2]), index, true
}

// Keyboard renders one button per action, stacked vertically. done reports
// whether an action should render in its terminal state.
func Keyboard(messageID int, list []actions.Action, done func(a actions.Action) bool) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list))
	for _, a := range list {
		label := Label(a)
		if done != nil && done(a) {
			label = "✅ " + DoneLabel(a)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, CallbackData(messageID, a)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Label is the call-to-action caption for an unconfirmed affordance.
func Label(a actions.Action) string {
	switch a.Kind {
	case actions.KindProduct:
		return truncate(fmt.Sprintf("Add %s to cabinet", a.Product.Name))
	case actions.KindRoutine:
		return truncate(fmt.Sprintf("Update %s routine", a.Routine.Type))
	case actions.KindTreatment:
		return truncate(fmt.Sprintf("Plan %s", a.Treatment.Type))
	case actions.KindGoal:
		return truncate(fmt.Sprintf("Set goal: %s", a.Goal.Title))
	case actions.KindRoutineAction:
		return truncate(fmt.Sprintf("Mark %s routine done", a.Complete.Type))
	case actions.KindCabinetAction:
		switch a.Cabinet.Action {
		case "remove":
			return truncate(fmt.Sprintf("Remove %s", a.Cabinet.ProductName))
		case "update":
			return truncate(fmt.Sprintf("Update %s", a.Cabinet.ProductName))
		}
		return truncate(fmt.Sprintf("Add %s", a.Cabinet.ProductName))
	case actions.KindAppointmentAction:
		switch a.Appointment.Action {
		case "edit":
			return truncate(fmt.Sprintf("Reschedule %s", a.Appointment.TreatmentType))
		case "remove":
			return truncate(fmt.Sprintf("Cancel %s", a.Appointment.TreatmentType))
		}
		return truncate(fmt.Sprintf("Book %s", a.Appointment.TreatmentType))
	case actions.KindCheckinAction:
		return "Save photos to check-in"
	case actions.KindWeeklyRoutine:
		return truncate(fmt.Sprintf("Apply \"%s\"", a.Weekly.Title))
	}
	return string(a.Kind)
}

// DoneLabel is the terminal caption shown after a confirmed dispatch.
func DoneLabel(a actions.Action) string {
	switch a.Kind {
	case actions.KindProduct:
		return "Added"
	case actions.KindRoutine:
		return "Routine updated"
	case actions.KindTreatment, actions.KindGoal:
		return "Saved"
	case actions.KindRoutineAction:
		return "Completed"
	case actions.KindCabinetAction:
		if a.Cabinet.Action == "remove" {
			return "Removed"
		}
		return "Cabinet updated"
	case actions.KindAppointmentAction:
		if a.Appointment.Action == "remove" {
			return "Cancelled"
		}
		return "Booked"
	case actions.KindCheckinAction:
		return "Photos saved"
	case actions.KindWeeklyRoutine:
		return "Plan applied"
	}
	return "Done"
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxLabel {
		return s
	}
	return string(r[:maxLabel-1]) + "…"
}
