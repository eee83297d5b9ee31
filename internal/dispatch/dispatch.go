// Package dispatch executes confirmed chat actions: one handler per action
// kind, each validating against the current cache, performing its mutation
// through the shared store (or a dedicated backend write), and reporting a
// user-facing result. Failures are messages, never crashes; the chat
// surface stays usable after any single action goes wrong.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-skincoach/internal/actions"
	"ai-skincoach/internal/auth"
	"ai-skincoach/internal/backend"
	"ai-skincoach/internal/domain"
	"ai-skincoach/internal/store"
)

// Result is what a handler reports back to the conversation loop. Message
// is always safe to show to the user.
type Result struct {
	Success bool
	Message string
	Data    interface{}
}

// CalendarSync mirrors appointments to an external calendar. Sync failures
// never fail the local operation.
type CalendarSync interface {
	Insert(ctx context.Context, a domain.Appointment) (eventID string, err error)
	Update(ctx context.Context, a domain.Appointment) error
	Delete(ctx context.Context, a domain.Appointment) error
}

type Dispatcher struct {
	store   *store.Store
	backend backend.Store
	auth    *auth.Service
	cal     CalendarSync
	now     func() time.Time
}

func New(st *store.Store, be backend.Store, authSvc *auth.Service) *Dispatcher {
	return &Dispatcher{
		store:   st,
		backend: be,
		auth:    authSvc,
		now:     time.Now,
	}
}

// SetCalendar enables appointment mirroring. Optional.
func (d *Dispatcher) SetCalendar(cal CalendarSync) {
	d.cal = cal
}

// Dispatch runs the handler for the action's kind. Handlers never let a
// panic or error escape: anything thrown is converted into a user-visible
// failure result. Handlers are safe to invoke twice for the same action;
// the second run either upserts onto the same records or reports a clean
// failure (for example a cabinet removal whose target is already gone).
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64, a actions.Action) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatch: recovered %s handler panic: %v", a.Kind, r)
			res = Result{Message: "Sorry, something went wrong applying that suggestion."}
		}
	}()

	if d.auth != nil && !d.auth.IsAllowed(userID) {
		// Fatal for this action only; nothing is written.
		return Result{Message: "Please log in before applying suggestions."}
	}

	switch a.Kind {
	case actions.KindProduct:
		return d.handleProduct(ctx, userID, a.Product)
	case actions.KindRoutine:
		return d.handleRoutineUpdate(ctx, userID, a.Routine)
	case actions.KindTreatment:
		return d.handleTreatment(ctx, userID, a.Treatment)
	case actions.KindGoal:
		return d.handleGoal(ctx, userID, a.Goal)
	case actions.KindRoutineAction:
		return d.handleRoutineComplete(ctx, userID, a.Complete)
	case actions.KindCabinetAction:
		return d.handleCabinet(ctx, userID, a.Cabinet)
	case actions.KindAppointmentAction:
		return d.handleAppointment(ctx, userID, a.Appointment)
	case actions.KindCheckinAction:
		return d.handleCheckinPhotos(ctx, userID, a.Checkin)
	case actions.KindWeeklyRoutine:
		return d.handleWeeklyRoutine(ctx, userID, a.Weekly)
	}
	return Result{Message: fmt.Sprintf("I don't know how to handle a %s action.", a.Kind)}
}

// failure logs the underlying error and wraps it into a user-facing result.
func failure(kind actions.Kind, err error, msg string) Result {
	log.Printf("dispatch: %s handler failed: %v", kind, err)
	return Result{Message: msg}
}
