package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ai-skincoach/internal/actions"
	"ai-skincoach/internal/domain"
)

// handleAppointment writes appointments straight through the backend; they
// are schedule data, not part of the chat-visible cache. When a calendar is
// configured the event is mirrored there too, but a sync failure never rolls
// back the local record.
func (d *Dispatcher) handleAppointment(ctx context.Context, userID int64, a *actions.AppointmentChange) Result {
	switch a.Action {
	case "add":
		startsAt, err := combineDateTime(a.Date, a.Time)
		if err != nil {
			return Result{Message: fmt.Sprintf("I couldn't read the appointment time %q %q.", a.Date, a.Time)}
		}
		appt := domain.Appointment{
			ID:            uuid.NewString(),
			UserID:        userID,
			TreatmentType: a.TreatmentType,
			StartsAt:      startsAt,
			Provider:      a.Provider,
			Location:      a.Location,
			Notes:         a.Notes,
		}
		if d.cal != nil {
			if eventID, err := d.cal.Insert(ctx, appt); err != nil {
				log.Printf("dispatch: calendar insert failed: %v", err)
			} else {
				appt.CalendarEventID = eventID
			}
		}
		if err := d.backend.SaveAppointment(ctx, appt); err != nil {
			return failure(actions.KindAppointmentAction, err, "Sorry, I couldn't book that appointment.")
		}
		return Result{
			Success: true,
			Message: fmt.Sprintf("Booked %s with %s on %s at %s.", a.TreatmentType, a.Provider,
				startsAt.Format(domain.DateFormat), startsAt.Format(domain.TimeFormat)),
			Data: appt,
		}

	case "edit":
		appt, ok := d.findAppointment(ctx, userID, a.AppointmentID)
		if !ok {
			return Result{Message: "I couldn't find that appointment anymore."}
		}
		if err := applyAppointmentChanges(&appt, a.Changes); err != nil {
			return Result{Message: err.Error()}
		}
		if d.cal != nil && appt.CalendarEventID != "" {
			if err := d.cal.Update(ctx, appt); err != nil {
				log.Printf("dispatch: calendar update failed: %v", err)
			}
		}
		if err := d.backend.SaveAppointment(ctx, appt); err != nil {
			return failure(actions.KindAppointmentAction, err, "Sorry, I couldn't update that appointment.")
		}
		return Result{Success: true, Message: "Updated your appointment.", Data: appt}

	case "remove":
		appt, ok := d.findAppointment(ctx, userID, a.AppointmentID)
		if !ok {
			return Result{Message: "I couldn't find that appointment anymore."}
		}
		if d.cal != nil && appt.CalendarEventID != "" {
			if err := d.cal.Delete(ctx, appt); err != nil {
				log.Printf("dispatch: calendar delete failed: %v", err)
			}
		}
		if err := d.backend.DeleteAppointment(ctx, appt.ID); err != nil {
			return failure(actions.KindAppointmentAction, err, "Sorry, I couldn't cancel that appointment.")
		}
		return Result{Success: true, Message: fmt.Sprintf("Cancelled your %s appointment.", appt.TreatmentType)}
	}
	return Result{Message: fmt.Sprintf("Unknown appointment action %q.", a.Action)}
}

func (d *Dispatcher) findAppointment(ctx context.Context, userID int64, id string) (domain.Appointment, bool) {
	appts, err := d.backend.ListAppointments(ctx, userID)
	if err != nil {
		log.Printf("dispatch: list appointments failed: %v", err)
		return domain.Appointment{}, false
	}
	for _, appt := range appts {
		if appt.ID == id {
			return appt, true
		}
	}
	return domain.Appointment{}, false
}

// applyAppointmentChanges updates the fields named in changes. Date and time
// edits recombine with the unchanged half of the existing instant.
func applyAppointmentChanges(appt *domain.Appointment, changes map[string]string) error {
	date := appt.StartsAt.Format(domain.DateFormat)
	clock := appt.StartsAt.Format(domain.TimeFormat)
	reschedule := false

	for field, value := range changes {
		switch field {
		case "date":
			date, reschedule = value, true
		case "time":
			clock, reschedule = value, true
		case "treatment_type":
			appt.TreatmentType = value
		case "provider":
			appt.Provider = value
		case "location":
			appt.Location = value
		case "notes":
			appt.Notes = value
		default:
			return fmt.Errorf("I don't know how to change %q on an appointment.", field)
		}
	}
	if reschedule {
		startsAt, err := combineDateTime(date, clock)
		if err != nil {
			return fmt.Errorf("I couldn't read the new appointment time %q %q.", date, clock)
		}
		appt.StartsAt = startsAt
	}
	return nil
}

func combineDateTime(date, clock string) (time.Time, error) {
	return time.Parse(domain.DateFormat+" "+domain.TimeFormat, date+" "+clock)
}
