// Package backend is the persistence boundary: entity-scoped CRUD calls
// against a keyed record store. Each call is a plain record operation with
// no subsystem-specific wire format, so the file-backed implementation here
// is swappable for a managed service.
package backend

import (
	"context"

	"ai-skincoach/internal/domain"
)

// Store is the full CRUD surface the rest of the app writes through.
// Saves are upserts keyed by record ID and therefore idempotent; invoking a
// handler twice with the same resolved record is safe.
type Store interface {
	ListRoutines(ctx context.Context, userID int64) ([]domain.Routine, error)
	SaveRoutine(ctx context.Context, r domain.Routine) error
	DeleteRoutine(ctx context.Context, id string) error

	ListRoutineSteps(ctx context.Context, routineID string) ([]domain.RoutineStep, error)
	ReplaceRoutineSteps(ctx context.Context, routineID string, steps []domain.RoutineStep) error

	ListProducts(ctx context.Context) ([]domain.Product, error)
	SaveProduct(ctx context.Context, p domain.Product) error

	ListInventory(ctx context.Context, userID int64) ([]domain.InventoryItem, error)
	SaveInventoryItem(ctx context.Context, it domain.InventoryItem) error
	DeleteInventoryItem(ctx context.Context, id string) error

	ListCheckIns(ctx context.Context, userID int64) ([]domain.CheckIn, error)
	SaveCheckIn(ctx context.Context, c domain.CheckIn) error

	ListGoals(ctx context.Context, userID int64) ([]domain.Goal, error)
	SaveGoal(ctx context.Context, g domain.Goal) error

	ListAppointments(ctx context.Context, userID int64) ([]domain.Appointment, error)
	SaveAppointment(ctx context.Context, a domain.Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
}
