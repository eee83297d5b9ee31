package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-skincoach/internal/domain"
)

// memBackend is an in-memory backend.Store with per-call failure injection.
type memBackend struct {
	routines     []domain.Routine
	steps        []domain.RoutineStep
	products     []domain.Product
	inventory    []domain.InventoryItem
	checkIns     []domain.CheckIn
	goals        []domain.Goal
	appointments []domain.Appointment
	failSaves    bool
}

var errInjected = errors.New("backend down")

func (m *memBackend) ListRoutines(ctx context.Context, userID int64) ([]domain.Routine, error) {
	return append([]domain.Routine(nil), m.routines...), nil
}

func (m *memBackend) SaveRoutine(ctx context.Context, r domain.Routine) error {
	if m.failSaves {
		return errInjected
	}
	for i := range m.routines {
		if m.routines[i].ID == r.ID {
			m.routines[i] = r
			return nil
		}
	}
	m.routines = append(m.routines, r)
	return nil
}

func (m *memBackend) DeleteRoutine(ctx context.Context, id string) error { return nil }

func (m *memBackend) ListRoutineSteps(ctx context.Context, routineID string) ([]domain.RoutineStep, error) {
	var out []domain.RoutineStep
	for _, s := range m.steps {
		if s.RoutineID == routineID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memBackend) ReplaceRoutineSteps(ctx context.Context, routineID string, steps []domain.RoutineStep) error {
	if m.failSaves {
		return errInjected
	}
	out := m.steps[:0]
	for _, s := range m.steps {
		if s.RoutineID != routineID {
			out = append(out, s)
		}
	}
	m.steps = append(out, steps...)
	return nil
}

func (m *memBackend) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return append([]domain.Product(nil), m.products...), nil
}

func (m *memBackend) SaveProduct(ctx context.Context, p domain.Product) error {
	if m.failSaves {
		return errInjected
	}
	m.products = append(m.products, p)
	return nil
}

func (m *memBackend) ListInventory(ctx context.Context, userID int64) ([]domain.InventoryItem, error) {
	return append([]domain.InventoryItem(nil), m.inventory...), nil
}

func (m *memBackend) SaveInventoryItem(ctx context.Context, it domain.InventoryItem) error {
	if m.failSaves {
		return errInjected
	}
	for i := range m.inventory {
		if m.inventory[i].ID == it.ID {
			m.inventory[i] = it
			return nil
		}
	}
	m.inventory = append(m.inventory, it)
	return nil
}

func (m *memBackend) DeleteInventoryItem(ctx context.Context, id string) error {
	if m.failSaves {
		return errInjected
	}
	out := m.inventory[:0]
	for _, it := range m.inventory {
		if it.ID != id {
			out = append(out, it)
		}
	}
	m.inventory = out
	return nil
}

func (m *memBackend) ListCheckIns(ctx context.Context, userID int64) ([]domain.CheckIn, error) {
	return append([]domain.CheckIn(nil), m.checkIns...), nil
}

func (m *memBackend) SaveCheckIn(ctx context.Context, c domain.CheckIn) error {
	if m.failSaves {
		return errInjected
	}
	for i := range m.checkIns {
		if m.checkIns[i].Date == c.Date && m.checkIns[i].UserID == c.UserID {
			m.checkIns[i] = c
			return nil
		}
	}
	m.checkIns = append(m.checkIns, c)
	return nil
}

func (m *memBackend) ListGoals(ctx context.Context, userID int64) ([]domain.Goal, error) {
	return append([]domain.Goal(nil), m.goals...), nil
}

func (m *memBackend) SaveGoal(ctx context.Context, g domain.Goal) error {
	if m.failSaves {
		return errInjected
	}
	m.goals = append(m.goals, g)
	return nil
}

func (m *memBackend) ListAppointments(ctx context.Context, userID int64) ([]domain.Appointment, error) {
	return append([]domain.Appointment(nil), m.appointments...), nil
}

func (m *memBackend) SaveAppointment(ctx context.Context, a domain.Appointment) error {
	if m.failSaves {
		return errInjected
	}
	m.appointments = append(m.appointments, a)
	return nil
}

func (m *memBackend) DeleteAppointment(ctx context.Context, id string) error { return nil }

func TestRefreshDataReplacesSnapshotWholesale(t *testing.T) {
	ctx := context.Background()
	mb := &memBackend{
		routines: []domain.Routine{{ID: "r1", UserID: 1, Name: "Morning Glow", Type: "morning", IsActive: true}},
		steps:    []domain.RoutineStep{{ID: "s1", RoutineID: "r1", StepOrder: 1, Instructions: "cleanse"}},
		goals:    []domain.Goal{{ID: "g1", UserID: 1, Title: "clear skin", Status: domain.GoalActive}},
	}
	s := New(mb)
	if err := s.RefreshData(ctx, 1); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	snap := s.Snapshot(1)
	if len(snap.Routines) != 1 || len(snap.Routines[0].Steps) != 1 {
		t.Fatalf("routine join missing: %+v", snap.Routines)
	}
	if len(snap.Goals) != 1 {
		t.Fatalf("goals not loaded: %+v", snap.Goals)
	}

	mb.routines = nil
	if err := s.RefreshData(ctx, 1); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if len(s.Snapshot(1).Routines) != 0 {
		t.Fatalf("stale routine survived wholesale replacement")
	}
}

func TestMutationNotifiesSubscribers(t *testing.T) {
	ctx := context.Background()
	s := New(&memBackend{})
	var calls []int64
	unsub := s.OnDataChange(func(userID int64) { calls = append(calls, userID) })

	if err := s.AddGoal(ctx, domain.Goal{UserID: 5, Title: "t"}); err != nil {
		t.Fatalf("add goal: %v", err)
	}
	if len(calls) != 1 || calls[0] != 5 {
		t.Fatalf("expected one notification for user 5, got %v", calls)
	}

	unsub()
	if err := s.AddGoal(ctx, domain.Goal{UserID: 5, Title: "t2"}); err != nil {
		t.Fatalf("add goal: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("unsubscribed callback still fired: %v", calls)
	}
}

func TestFailedWriteRollsBackOptimisticUpdate(t *testing.T) {
	ctx := context.Background()
	mb := &memBackend{}
	s := New(mb)
	notified := 0
	s.OnDataChange(func(int64) { notified++ })

	mb.failSaves = true
	err := s.AddGoal(ctx, domain.Goal{UserID: 2, Title: "doomed"})
	if err == nil || !errors.Is(err, errInjected) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if len(s.Snapshot(2).Goals) != 0 {
		t.Fatalf("cache left ahead of the backend after failed write")
	}
	if notified != 1 {
		t.Fatalf("subscribers must still hear about the settled state, got %d", notified)
	}
}

func TestMarkRoutineCompleteFreshRecordTriState(t *testing.T) {
	ctx := context.Background()
	mb := &memBackend{}
	s := New(mb)
	s.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }

	r := domain.Routine{ID: "r1", UserID: 1, Name: "Morning Glow", Type: "morning"}
	if err := s.MarkRoutineComplete(ctx, 1, r); err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	recs := s.Snapshot(1).CheckIns
	if len(recs) != 1 {
		t.Fatalf("expected one check-in, got %d", len(recs))
	}
	c := recs[0]
	if c.Date != "2026-09-01" {
		t.Fatalf("wrong date: %q", c.Date)
	}
	if c.MorningCompleted == nil || !*c.MorningCompleted {
		t.Fatalf("morning flag not set: %+v", c)
	}
	if c.EveningCompleted != nil {
		t.Fatalf("fresh record must leave the other flag untracked (nil), got %v", *c.EveningCompleted)
	}
}

func TestMarkRoutineCompleteClassifiesByName(t *testing.T) {
	ctx := context.Background()
	s := New(&memBackend{})
	s.now = func() time.Time { return time.Date(2026, 9, 1, 21, 0, 0, 0, time.UTC) }

	// Type does not say evening, the name does.
	r := domain.Routine{ID: "r2", UserID: 1, Name: "Evening Wind-Down", Type: "custom"}
	if err := s.MarkRoutineComplete(ctx, 1, r); err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	c := s.Snapshot(1).CheckIns[0]
	if c.EveningCompleted == nil || !*c.EveningCompleted {
		t.Fatalf("evening flag not set: %+v", c)
	}
	if c.MorningCompleted != nil {
		t.Fatalf("morning flag should stay untracked: %+v", c)
	}
}

func TestMarkRoutineCompletePreservesExistingFlags(t *testing.T) {
	ctx := context.Background()
	mb := &memBackend{checkIns: []domain.CheckIn{{
		ID: "c1", UserID: 1, Date: "2026-09-01",
		MorningCompleted: domain.Bool(true),
		SkinRating:       intPtr(4),
	}}}
	s := New(mb)
	s.now = func() time.Time { return time.Date(2026, 9, 1, 21, 0, 0, 0, time.UTC) }
	if err := s.RefreshData(ctx, 1); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	r := domain.Routine{ID: "r2", UserID: 1, Name: "Wind Down", Type: "evening"}
	if err := s.MarkRoutineComplete(ctx, 1, r); err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	c := s.Snapshot(1).CheckIns[0]
	if c.ID != "c1" {
		t.Fatalf("existing record replaced instead of updated: %+v", c)
	}
	if c.MorningCompleted == nil || !*c.MorningCompleted {
		t.Fatalf("morning flag lost: %+v", c)
	}
	if c.EveningCompleted == nil || !*c.EveningCompleted {
		t.Fatalf("evening flag not set: %+v", c)
	}
	if c.SkinRating == nil || *c.SkinRating != 4 {
		t.Fatalf("unrelated fields lost: %+v", c)
	}
}

func TestAddProductToInventoryNaturalKey(t *testing.T) {
	ctx := context.Background()
	s := New(&memBackend{})
	p := domain.Product{ID: "p1", Name: "Toner", Brand: "Acme", Category: "toner"}

	first, err := s.AddProductToInventory(ctx, 1, p, 100)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	second, err := s.AddProductToInventory(ctx, 1, p, 80)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("double add minted a second row: %q vs %q", first.ID, second.ID)
	}
	inv := s.Snapshot(1).Inventory
	if len(inv) != 1 || inv[0].AmountRemaining != 80 {
		t.Fatalf("inventory after double add: %+v", inv)
	}
}

func TestMarkProductAsUsedFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	s := New(&memBackend{})
	p := domain.Product{ID: "p1", Name: "Serum", Brand: "B", Category: "serum"}
	item, err := s.AddProductToInventory(ctx, 1, p, 3)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.MarkProductAsUsed(ctx, 1, item.ID); err != nil {
		t.Fatalf("use: %v", err)
	}
	if got := s.Snapshot(1).Inventory[0].AmountRemaining; got != 0 {
		t.Fatalf("expected floor at 0, got %d", got)
	}
}

func TestRefreshSignalReachesStore(t *testing.T) {
	mb := &memBackend{goals: []domain.Goal{{ID: "g1", UserID: 9, Title: "t", Status: domain.GoalActive}}}
	s := New(mb)
	stop := s.ListenRefresh()
	defer stop()

	RequestRefresh(9)
	if len(s.Snapshot(9).Goals) != 1 {
		t.Fatalf("broadcast refresh did not reload the snapshot")
	}
}

func intPtr(v int) *int { return &v }
