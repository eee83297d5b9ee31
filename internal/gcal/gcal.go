// Package gcal mirrors appointments into a Google Calendar. The syncer is
// optional; when it is not configured appointments live only in local
// storage.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"ai-skincoach/internal/domain"
)

// eventDuration blocks one hour per treatment; the wire format carries no
// end time.
const eventDuration = time.Hour

type Syncer struct {
	svc        *calendar.Service
	calendarID string
}

// NewFromFiles builds a syncer from a Google Cloud Console credentials file
// and a stored OAuth2 token, as produced by calendar-auth-helper.
func NewFromFiles(ctx context.Context, credentialsPath, tokenPath, calendarID string) (*Syncer, error) {
	credData, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(credData, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	tokenData, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	svc, err := calendar.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Syncer{svc: svc, calendarID: calendarID}, nil
}

func (s *Syncer) Insert(ctx context.Context, a domain.Appointment) (string, error) {
	created, err := s.svc.Events.Insert(s.calendarID, event(a)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

func (s *Syncer) Update(ctx context.Context, a domain.Appointment) error {
	if _, err := s.svc.Events.Update(s.calendarID, a.CalendarEventID, event(a)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func (s *Syncer) Delete(ctx context.Context, a domain.Appointment) error {
	if err := s.svc.Events.Delete(s.calendarID, a.CalendarEventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func event(a domain.Appointment) *calendar.Event {
	return &calendar.Event{
		Summary:     fmt.Sprintf("%s with %s", a.TreatmentType, a.Provider),
		Location:    a.Location,
		Description: a.Notes,
		Start:       &calendar.EventDateTime{DateTime: a.StartsAt.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: a.StartsAt.Add(eventDuration).Format(time.RFC3339)},
	}
}
