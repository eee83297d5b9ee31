package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ai-skincoach/internal/actions"
	"ai-skincoach/internal/domain"
)

func (d *Dispatcher) handleProduct(ctx context.Context, userID int64, p *actions.ProductSuggestion) Result {
	snap := d.store.Snapshot(userID)
	product, ok := findProduct(snap.Products, p.Name, p.Brand)
	if !ok {
		product = domain.Product{
			Name:           p.Name,
			Brand:          p.Brand,
			Category:       p.Category,
			Description:    p.Description,
			KeyIngredients: p.KeyIngredients,
			Benefits:       p.Benefits,
		}
	}
	// New cabinet entries start full.
	if _, err := d.store.AddProductToInventory(ctx, userID, product, 100); err != nil {
		return failure(actions.KindProduct, err, "Sorry, I couldn't add that product to your cabinet.")
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Added %s by %s to your cabinet.", p.Name, p.Brand),
	}
}

func (d *Dispatcher) handleRoutineUpdate(ctx context.Context, userID int64, r *actions.RoutineUpdate) Result {
	snap := d.store.Snapshot(userID)
	routine, ok := activeRoutine(snap.Routines, r.Type)
	if !ok {
		return Result{Message: fmt.Sprintf("You don't have an active %s routine to update yet.", r.Type)}
	}

	order := 0
	for _, step := range routine.Steps {
		if step.StepOrder > order {
			order = step.StepOrder
		}
	}
	for _, change := range r.Changes {
		order++
		routine.Steps = append(routine.Steps, domain.RoutineStep{
			ID:           uuid.NewString(),
			RoutineID:    routine.ID,
			StepOrder:    order,
			Instructions: change,
		})
	}
	if err := d.store.UpdateRoutine(ctx, routine); err != nil {
		return failure(actions.KindRoutine, err, "Sorry, I couldn't update your routine.")
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Updated your %s routine with %d change(s).", r.Type, len(r.Changes)),
		Data:    routine,
	}
}

// Treatments become trackable goals; the reason and cadence are kept in the
// goal description.
func (d *Dispatcher) handleTreatment(ctx context.Context, userID int64, t *actions.TreatmentSuggestion) Result {
	goal := domain.Goal{
		UserID:      userID,
		Title:       fmt.Sprintf("Treatment: %s", t.Type),
		Description: fmt.Sprintf("%s (%s)", t.Reason, t.Frequency),
	}
	if err := d.store.AddGoal(ctx, goal); err != nil {
		return failure(actions.KindTreatment, err, "Sorry, I couldn't save that treatment.")
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Added %s (%s) to your plan.", t.Type, t.Frequency),
	}
}

func (d *Dispatcher) handleGoal(ctx context.Context, userID int64, g *actions.GoalSuggestion) Result {
	goal := domain.Goal{
		UserID:      userID,
		Title:       g.Title,
		Description: g.Description,
		TargetDate:  g.TargetDate,
	}
	if err := d.store.AddGoal(ctx, goal); err != nil {
		return failure(actions.KindGoal, err, "Sorry, I couldn't save that goal.")
	}
	return Result{Success: true, Message: fmt.Sprintf("Goal set: %s.", g.Title)}
}

func (d *Dispatcher) handleRoutineComplete(ctx context.Context, userID int64, c *actions.RoutineCompletion) Result {
	snap := d.store.Snapshot(userID)
	routine, ok := activeRoutine(snap.Routines, c.Type)
	if !ok {
		return Result{Message: fmt.Sprintf("I couldn't find an active %s routine to complete.", c.Type)}
	}
	if err := d.store.MarkRoutineComplete(ctx, userID, routine); err != nil {
		return failure(actions.KindRoutineAction, err, "Sorry, I couldn't record that completion.")
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Nice work! Marked your %s routine as complete for today.", c.Type),
	}
}

// handleCheckinPhotos merges the photos into today's check-in, creating the
// record if today has none yet.
func (d *Dispatcher) handleCheckinPhotos(ctx context.Context, userID int64, c *actions.CheckinPhotos) Result {
	today := domain.Today(d.now())
	rec := domain.CheckIn{UserID: userID, Date: today}
	for _, existing := range d.store.Snapshot(userID).CheckIns {
		if existing.Date == today {
			rec = existing
			break
		}
	}
	rec.PhotoURLs = append(rec.PhotoURLs, c.PhotoURLs...)
	rec.Lighting = c.Lighting
	if c.Notes != "" {
		if rec.Notes != "" {
			rec.Notes += "\n"
		}
		rec.Notes += c.Notes
	}
	if err := d.store.AddCheckIn(ctx, rec); err != nil {
		return failure(actions.KindCheckinAction, err, "Sorry, I couldn't save those photos.")
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Saved %d photo(s) to today's check-in.", len(c.PhotoURLs)),
	}
}

// weekdayOrder fixes the scan order for weekly schedules; the wire format is
// a JSON object whose key order is not preserved.
var weekdayOrder = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// handleWeeklyRoutine replaces the user's routines with the suggested plan:
// every existing routine is deactivated, then one morning and one evening
// routine are created from the first scheduled day.
func (d *Dispatcher) handleWeeklyRoutine(ctx context.Context, userID int64, w *actions.WeeklyRoutineSuggestion) Result {
	day, plan, ok := firstDay(w.WeeklySchedule)
	if !ok {
		return Result{Message: "That weekly plan doesn't cover any day I recognize."}
	}

	snap := d.store.Snapshot(userID)
	for _, r := range snap.Routines {
		if !r.IsActive {
			continue
		}
		r.IsActive = false
		if err := d.store.UpdateRoutine(ctx, r); err != nil {
			return failure(actions.KindWeeklyRoutine, err, "Sorry, I couldn't switch over to the new plan.")
		}
	}

	for _, half := range []struct {
		kind  string
		steps []string
	}{
		{"morning", plan.Morning.Steps},
		{"evening", plan.Evening.Steps},
	} {
		routine := domain.Routine{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      fmt.Sprintf("%s (%s)", w.Title, half.kind),
			Type:      half.kind,
			IsActive:  true,
			DayOfWeek: day,
			CreatedAt: d.now(),
		}
		for i, step := range half.steps {
			routine.Steps = append(routine.Steps, domain.RoutineStep{
				ID:           uuid.NewString(),
				RoutineID:    routine.ID,
				StepOrder:    i + 1,
				Instructions: step,
			})
		}
		if err := d.store.UpdateRoutine(ctx, routine); err != nil {
			return failure(actions.KindWeeklyRoutine, err, "Sorry, I couldn't save the new plan.")
		}
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Switched you over to \"%s\".", w.Title),
	}
}

func firstDay(schedule map[string]actions.DayPlan) (string, actions.DayPlan, bool) {
	for _, day := range weekdayOrder {
		if plan, ok := schedule[day]; ok {
			return day, plan, true
		}
	}
	return "", actions.DayPlan{}, false
}

// activeRoutine resolves the user's active routine for "morning" or
// "evening", matching on type first and routine name second.
func activeRoutine(routines []domain.Routine, kind string) (domain.Routine, bool) {
	kind = strings.ToLower(kind)
	for _, r := range routines {
		if r.IsActive && strings.ToLower(r.Type) == kind {
			return r, true
		}
	}
	for _, r := range routines {
		if r.IsActive && strings.Contains(strings.ToLower(r.Name), kind) {
			return r, true
		}
	}
	return domain.Routine{}, false
}

func findProduct(products []domain.Product, name, brand string) (domain.Product, bool) {
	for _, p := range products {
		if strings.EqualFold(p.Name, name) && strings.EqualFold(p.Brand, brand) {
			return p, true
		}
	}
	return domain.Product{}, false
}
