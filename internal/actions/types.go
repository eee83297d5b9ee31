package actions

import "fmt"

// Kind discriminates the closed set of machine-actionable instructions the
// advisor may embed in its replies as [KIND]{json}[/KIND] segments.
type Kind string

const (
	KindProduct           Kind = "PRODUCT"
	KindRoutine           Kind = "ROUTINE"
	KindTreatment         Kind = "TREATMENT"
	KindGoal              Kind = "GOAL"
	KindRoutineAction     Kind = "ROUTINE_ACTION"
	KindCabinetAction     Kind = "CABINET_ACTION"
	KindAppointmentAction Kind = "APPOINTMENT_ACTION"
	KindCheckinAction     Kind = "CHECKIN_ACTION"
	KindWeeklyRoutine     Kind = "WEEKLY_ROUTINE"
)

// Kinds is the recognized vocabulary in scan order. Tags with any other
// kind are left in the prose verbatim.
var Kinds = []Kind{
	KindProduct,
	KindRoutine,
	KindTreatment,
	KindGoal,
	KindRoutineAction,
	KindCabinetAction,
	KindAppointmentAction,
	KindCheckinAction,
	KindWeeklyRoutine,
}

// Action is the tagged union of all advisor instructions. Exactly one
// payload pointer is non-nil, matching Kind. Index is the occurrence index
// of this kind within the source message, assigned in text order by Parse;
// (Kind, Index) identifies the action deterministically across re-parses.
type Action struct {
	Kind  Kind
	Index int

	Product     *ProductSuggestion
	Routine     *RoutineUpdate
	Treatment   *TreatmentSuggestion
	Goal        *GoalSuggestion
	Complete    *RoutineCompletion
	Cabinet     *CabinetChange
	Appointment *AppointmentChange
	Checkin     *CheckinPhotos
	Weekly      *WeeklyRoutineSuggestion
}

// Key is the deterministic UI identity of the action within its message.
// It depends only on (Kind, Index), never on wall-clock time, so repeated
// renders of the same message keep affordance identity stable.
func (a Action) Key() string {
	return fmt.Sprintf("%s:%d", a.Kind, a.Index)
}

// ProductSuggestion proposes adding a product to the user's cabinet.
type ProductSuggestion struct {
	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	KeyIngredients []string `json:"key_ingredients"`
	Benefits       []string `json:"benefits"`
	Reason         string   `json:"reason"`
	Added          bool     `json:"added,omitempty"`
}

// RoutineUpdate proposes changes to the active morning or evening routine.
type RoutineUpdate struct {
	Type      string   `json:"type"` // "morning" or "evening"
	Changes   []string `json:"changes"`
	Completed bool     `json:"completed,omitempty"`
}

// TreatmentSuggestion proposes a recurring or one-off treatment.
type TreatmentSuggestion struct {
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	Frequency string `json:"frequency"`
	Completed bool   `json:"completed,omitempty"`
}

// GoalSuggestion proposes a skin goal with a target date.
type GoalSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetDate  string `json:"target_date"`
	Completed   bool   `json:"completed,omitempty"`
}

// RoutineCompletion marks today's morning or evening routine as done.
type RoutineCompletion struct {
	Type        string `json:"type"` // "morning" or "evening"
	RoutineName string `json:"routine_name"`
	Action      string `json:"action"` // always "complete"
	Completed   bool   `json:"completed,omitempty"`
}

// CabinetChange adds, removes or updates a cabinet item, resolved against
// the current inventory by product name and brand.
type CabinetChange struct {
	Action          string `json:"action"` // "add", "remove" or "update"
	ProductName     string `json:"product_name"`
	ProductBrand    string `json:"product_brand"`
	Category        string `json:"category,omitempty"`
	AmountRemaining *int   `json:"amount_remaining,omitempty"`
	Reason          string `json:"reason"`
	Added           bool   `json:"added,omitempty"`
}

// AppointmentChange adds, edits or removes a treatment appointment. Date
// and Time are separate wire fields combined into one instant at dispatch.
type AppointmentChange struct {
	Action        string            `json:"action"` // "add", "edit" or "remove"
	TreatmentType string            `json:"treatment_type"`
	Date          string            `json:"date"`
	Time          string            `json:"time"`
	Provider      string            `json:"provider"`
	Location      string            `json:"location,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	AppointmentID string            `json:"appointment_id,omitempty"`
	Changes       map[string]string `json:"changes,omitempty"`
	Completed     bool              `json:"completed,omitempty"`
}

// CheckinPhotos attaches progress photos to today's check-in.
type CheckinPhotos struct {
	Action    string   `json:"action"` // always "add_photos"
	PhotoURLs []string `json:"photo_urls"`
	Notes     string   `json:"notes,omitempty"`
	Lighting  string   `json:"lighting"`
	Completed bool     `json:"completed,omitempty"`
}

// RoutinePlan is the suggested step list for one half of a day.
type RoutinePlan struct {
	Steps []string `json:"steps"`
}

// DayPlan is the suggested morning and evening plan for one weekday.
type DayPlan struct {
	Morning RoutinePlan `json:"morning"`
	Evening RoutinePlan `json:"evening"`
}

// WeeklyRoutineSuggestion proposes a full weekly schedule keyed by weekday
// name ("monday".."sunday").
type WeeklyRoutineSuggestion struct {
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Reasoning      string             `json:"reasoning"`
	WeeklySchedule map[string]DayPlan `json:"weekly_schedule"`
	Completed      bool               `json:"completed,omitempty"`
}

// valid reports whether the payload carries every required field for its
// kind. Invalid actions are discarded by Parse rather than surfaced.
func (a Action) valid() bool {
	switch a.Kind {
	case KindProduct:
		p := a.Product
		return p != nil && p.Name != "" && p.Brand != "" && p.Category != "" &&
			p.Description != "" && len(p.KeyIngredients) > 0 && len(p.Benefits) > 0 && p.Reason != ""
	case KindRoutine:
		r := a.Routine
		return r != nil && (r.Type == "morning" || r.Type == "evening") && len(r.Changes) > 0
	case KindTreatment:
		t := a.Treatment
		return t != nil && t.Type != "" && t.Reason != "" && t.Frequency != ""
	case KindGoal:
		g := a.Goal
		return g != nil && g.Title != "" && g.Description != "" && g.TargetDate != ""
	case KindRoutineAction:
		c := a.Complete
		return c != nil && (c.Type == "morning" || c.Type == "evening") &&
			c.RoutineName != "" && c.Action == "complete"
	case KindCabinetAction:
		c := a.Cabinet
		if c == nil || c.ProductName == "" || c.ProductBrand == "" || c.Reason == "" {
			return false
		}
		return c.Action == "add" || c.Action == "remove" || c.Action == "update"
	case KindAppointmentAction:
		ap := a.Appointment
		if ap == nil || ap.TreatmentType == "" {
			return false
		}
		switch ap.Action {
		case "add":
			return ap.Date != "" && ap.Time != "" && ap.Provider != ""
		case "edit":
			return ap.AppointmentID != "" && len(ap.Changes) > 0
		case "remove":
			return ap.AppointmentID != ""
		}
		return false
	case KindCheckinAction:
		c := a.Checkin
		return c != nil && c.Action == "add_photos" && len(c.PhotoURLs) > 0 && c.Lighting != ""
	case KindWeeklyRoutine:
		w := a.Weekly
		return w != nil && w.Title != "" && w.Description != "" && w.Reasoning != "" &&
			len(w.WeeklySchedule) > 0
	}
	return false
}

// payload returns the non-nil payload for serialization.
func (a Action) payload() interface{} {
	switch a.Kind {
	case KindProduct:
		return a.Product
	case KindRoutine:
		return a.Routine
	case KindTreatment:
		return a.Treatment
	case KindGoal:
		return a.Goal
	case KindRoutineAction:
		return a.Complete
	case KindCabinetAction:
		return a.Cabinet
	case KindAppointmentAction:
		return a.Appointment
	case KindCheckinAction:
		return a.Checkin
	case KindWeeklyRoutine:
		return a.Weekly
	}
	return nil
}
