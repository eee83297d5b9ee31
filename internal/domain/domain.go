package domain

import "time"

// DateFormat is the canonical wire format for calendar dates (check-in
// dates, goal targets, appointment days). Times of day use TimeFormat.
const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04"
)

// Routine is a named morning or evening skincare routine. A user normally
// has one active routine per type; approving a weekly suggestion replaces
// both active routines.
type Routine struct {
	ID        string        `json:"id"`
	UserID    int64         `json:"user_id"`
	Name      string        `json:"name"`
	Type      string        `json:"type"` // "morning" or "evening"
	IsActive  bool          `json:"is_active"`
	DayOfWeek string        `json:"day_of_week,omitempty"`
	Steps     []RoutineStep `json:"steps,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// RoutineStep is one ordered step of a routine. ProductID may be empty for
// free-form instructions.
type RoutineStep struct {
	ID           string `json:"id"`
	RoutineID    string `json:"routine_id"`
	StepOrder    int    `json:"step_order"`
	Instructions string `json:"instructions"`
	ProductID    string `json:"product_id,omitempty"`
	Amount       string `json:"amount,omitempty"`
}

// Product is a catalog entry. Products are shared; ownership lives in the
// inventory rows that reference them.
type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	Category       string   `json:"category"`
	Description    string   `json:"description,omitempty"`
	KeyIngredients []string `json:"key_ingredients,omitempty"`
	Benefits       []string `json:"benefits,omitempty"`
}

// InventoryItem is one product in the user's cabinet. AmountRemaining is a
// 0-100 percentage.
type InventoryItem struct {
	ID              string `json:"id"`
	UserID          int64  `json:"user_id"`
	ProductID       string `json:"product_id"`
	AmountRemaining int    `json:"amount_remaining"`
	PurchaseDate    string `json:"purchase_date,omitempty"`
	ExpiryDate      string `json:"expiry_date,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// CheckIn is the daily record for one user and one date. The completion
// flags are tri-state: nil means "not yet tracked", which is distinct from
// "tracked and not done".
type CheckIn struct {
	ID               string   `json:"id"`
	UserID           int64    `json:"user_id"`
	Date             string   `json:"date"` // DateFormat
	MorningCompleted *bool    `json:"morning_completed"`
	EveningCompleted *bool    `json:"evening_completed"`
	SkinRating       *int     `json:"skin_rating,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	PhotoURLs        []string `json:"photo_urls,omitempty"`
	Lighting         string   `json:"lighting,omitempty"`
}

// Goal statuses.
const (
	GoalActive    = "active"
	GoalCompleted = "completed"
	GoalAbandoned = "abandoned"
)

type Goal struct {
	ID          string `json:"id"`
	UserID      int64  `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	TargetDate  string `json:"target_date,omitempty"` // DateFormat
	Status      string `json:"status"`
}

// Appointment is a scheduled professional treatment. CalendarEventID is set
// when the appointment has been mirrored to an external calendar.
type Appointment struct {
	ID              string    `json:"id"`
	UserID          int64     `json:"user_id"`
	TreatmentType   string    `json:"treatment_type"`
	StartsAt        time.Time `json:"starts_at"`
	Provider        string    `json:"provider"`
	Location        string    `json:"location,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CalendarEventID string    `json:"calendar_event_id,omitempty"`
}

// Today formats t's calendar day in DateFormat.
func Today(t time.Time) string {
	return t.Format(DateFormat)
}

// Bool returns a pointer to b, for the tri-state check-in flags.
func Bool(b bool) *bool { return &b }
