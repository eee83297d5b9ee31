// Package affordance renders parsed actions as interactive per-action
// elements and tracks their confirmation state. Cabinet confirmations are a
// transient flash that clears after a few seconds; routine completions are
// never tracked here but recomputed from the day's check-in, so the element
// cannot lie about state across reloads.
package affordance

import (
	"fmt"
	"sync"
	"time"

	"ai-skincoach/internal/actions"
	"ai-skincoach/internal/domain"
)

// State is the lifecycle of one affordance between renders.
type State int

const (
	// Idle awaits a click.
	Idle State = iota
	// Confirming means a dispatch is in flight; further clicks are ignored.
	Confirming
	// Done is the short-lived confirmation flash.
	Done
)

// DoneFlash is how long the Done state holds before reverting to Idle.
const DoneFlash = 3 * time.Second

// Timer schedules fn after d and returns a cancel function. Injected so
// tests advance logical time instead of sleeping.
type Timer func(d time.Duration, fn func()) (cancel func())

// Tracker is the per-affordance state machine, keyed by affordance key.
// Keys absent from the map are Idle.
type Tracker struct {
	mu      sync.Mutex
	timer   Timer
	states  map[string]State
	cancels map[string]func()
}

func NewTracker() *Tracker {
	return NewTrackerWithTimer(func(d time.Duration, fn func()) func() {
		t := time.AfterFunc(d, fn)
		return func() { t.Stop() }
	})
}

func NewTrackerWithTimer(timer Timer) *Tracker {
	return &Tracker{
		timer:   timer,
		states:  make(map[string]State),
		cancels: make(map[string]func()),
	}
}

// State returns the current state for key.
func (t *Tracker) State(key string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[key]
}

// Begin moves key from Idle to Confirming. It reports false when the
// affordance is already confirming or flashing, which is how a double click
// before the first dispatch settles gets swallowed.
func (t *Tracker) Begin(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.states[key] != Idle {
		return false
	}
	t.states[key] = Confirming
	return true
}

// Finish moves key to Done and schedules the reversion to Idle.
func (t *Tracker) Finish(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cancel, ok := t.cancels[key]; ok {
		cancel()
	}
	t.states[key] = Done
	t.cancels[key] = t.timer(DoneFlash, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.states[key] == Done {
			delete(t.states, key)
			delete(t.cancels, key)
		}
	})
}

// Fail reverts key to Idle immediately so the affordance can be retried.
func (t *Tracker) Fail(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cancel, ok := t.cancels[key]; ok {
		cancel()
		delete(t.cancels, key)
	}
	delete(t.states, key)
}

// TransientKey is the local completion key for cabinet actions.
func TransientKey(productName, brand string, index int) string {
	return fmt.Sprintf("%s-%s-%d", productName, brand, index)
}

// Key returns the tracking key for an action: cabinet actions use the
// product-derived transient key, everything else the action's stable
// (kind, index) key. Keys are scoped to the carrying message so a
// same-shaped action in another message tracks independently.
func Key(messageID int, a actions.Action) string {
	if a.Kind == actions.KindCabinetAction && a.Cabinet != nil {
		return fmt.Sprintf("%d:%s", messageID, TransientKey(a.Cabinet.ProductName, a.Cabinet.ProductBrand, a.Index))
	}
	return fmt.Sprintf("%d:%s", messageID, a.Key())
}

// RoutineDone reports whether the day's check-in already shows the routine
// type as completed. This is the durable completion source for routine
// completion affordances.
func RoutineDone(checkIns []domain.CheckIn, date, routineType string) bool {
	for _, c := range checkIns {
		if c.Date != date {
			continue
		}
		if routineType == "evening" {
			return c.EveningCompleted != nil && *c.EveningCompleted
		}
		return c.MorningCompleted != nil && *c.MorningCompleted
	}
	return false
}
