// Package scheduler drives the daily check-in reminder.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron         *cron.Cron
	ctx          context.Context
	cancel       context.CancelFunc
	spec         string
	reminderFunc func(ctx context.Context) error
}

// New creates a scheduler firing on the given cron spec, evaluated in UTC.
func New(spec string) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		spec:   spec,
	}
}

// SetReminderFunction sets the callback that delivers the reminder.
func (s *Scheduler) SetReminderFunction(f func(ctx context.Context) error) {
	s.reminderFunc = f
}

func (s *Scheduler) Start() error {
	if s.reminderFunc == nil {
		log.Println("reminder function not set, scheduler idle")
		return nil
	}
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.reminderFunc(s.ctx); err != nil {
			log.Printf("check-in reminder failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("scheduler started, check-in reminder on %q UTC", s.spec)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
