package backend

import (
	"context"
	"testing"

	"ai-skincoach/internal/domain"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	r := domain.Routine{ID: "r1", UserID: 7, Name: "Morning Glow", Type: "morning", IsActive: true}
	if err := s.SaveRoutine(ctx, r); err != nil {
		t.Fatalf("save routine: %v", err)
	}
	if err := s.ReplaceRoutineSteps(ctx, "r1", []domain.RoutineStep{
		{ID: "s1", RoutineID: "r1", StepOrder: 1, Instructions: "cleanse"},
		{ID: "s2", RoutineID: "r1", StepOrder: 2, Instructions: "spf"},
	}); err != nil {
		t.Fatalf("replace steps: %v", err)
	}

	// A second handle onto the same directory sees the same records.
	s2, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	routines, err := s2.ListRoutines(ctx, 7)
	if err != nil || len(routines) != 1 || routines[0].Name != "Morning Glow" {
		t.Fatalf("reopened routines: %v %v", routines, err)
	}
	steps, err := s2.ListRoutineSteps(ctx, "r1")
	if err != nil || len(steps) != 2 {
		t.Fatalf("reopened steps: %v %v", steps, err)
	}
	if other, _ := s2.ListRoutines(ctx, 8); len(other) != 0 {
		t.Fatalf("user scoping leaked: %v", other)
	}
}

func TestFileStoreUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	it := domain.InventoryItem{ID: "i1", UserID: 1, ProductID: "p1", AmountRemaining: 100}
	if err := s.SaveInventoryItem(ctx, it); err != nil {
		t.Fatalf("save: %v", err)
	}
	it.AmountRemaining = 40
	if err := s.SaveInventoryItem(ctx, it); err != nil {
		t.Fatalf("resave: %v", err)
	}
	items, err := s.ListInventory(ctx, 1)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected one row, got %v (%v)", items, err)
	}
	if items[0].AmountRemaining != 40 {
		t.Fatalf("upsert did not replace: %+v", items[0])
	}
}

func TestFileStoreCheckInNaturalKey(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	first := domain.CheckIn{ID: "c1", UserID: 3, Date: "2026-09-01", MorningCompleted: domain.Bool(true)}
	if err := s.SaveCheckIn(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	// A save with a fresh ID but the same user+date must land on the same row.
	second := domain.CheckIn{ID: "c2", UserID: 3, Date: "2026-09-01", MorningCompleted: domain.Bool(true), EveningCompleted: domain.Bool(true)}
	if err := s.SaveCheckIn(ctx, second); err != nil {
		t.Fatalf("resave: %v", err)
	}
	recs, err := s.ListCheckIns(ctx, 3)
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected one check-in, got %v (%v)", recs, err)
	}
	if recs[0].ID != "c1" {
		t.Fatalf("natural-key upsert minted a new ID: %+v", recs[0])
	}
	if recs[0].EveningCompleted == nil || !*recs[0].EveningCompleted {
		t.Fatalf("merge lost the evening flag: %+v", recs[0])
	}
}

func TestFileStoreDeleteRoutineDropsSteps(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.SaveRoutine(ctx, domain.Routine{ID: "r1", UserID: 1, Name: "n", Type: "morning"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.ReplaceRoutineSteps(ctx, "r1", []domain.RoutineStep{{ID: "s1", RoutineID: "r1", StepOrder: 1, Instructions: "x"}}); err != nil {
		t.Fatalf("steps: %v", err)
	}
	if err := s.DeleteRoutine(ctx, "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	steps, err := s.ListRoutineSteps(ctx, "r1")
	if err != nil || len(steps) != 0 {
		t.Fatalf("orphaned steps: %v (%v)", steps, err)
	}
}
