// Package store holds the single in-memory cache of a user's routines,
// inventory, check-ins and goals. All writes go through its mutation
// methods so the write-through and the subscriber notification are never
// bypassed; UI surfaces read snapshots by value and must not mutate them.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-skincoach/internal/backend"
	"ai-skincoach/internal/domain"
)

// usageStep is how many percentage points one logged use consumes.
const usageStep = 5

// Snapshot is the current cached state for one user. Slices are copies;
// treat them as read-only.
type Snapshot struct {
	Routines  []domain.Routine
	Inventory []domain.InventoryItem
	Products  []domain.Product
	CheckIns  []domain.CheckIn
	Goals     []domain.Goal
}

// Store is the shared reactive data store. Mutations update the cache
// optimistically, write through to the backend, restore the pre-mutation
// snapshot if the write fails, and fan out a change notification either way
// so every surface re-reads consistent state.
type Store struct {
	backend backend.Store
	now     func() time.Time

	mu      sync.RWMutex
	snaps   map[int64]Snapshot
	subs    map[int]func(userID int64)
	nextSub int
}

func New(b backend.Store) *Store {
	return &Store{
		backend: b,
		now:     time.Now,
		snaps:   make(map[int64]Snapshot),
		subs:    make(map[int]func(int64)),
	}
}

// SetClock overrides the time source used to stamp dates on new records.
// Tests inject a fixed clock so date assertions hold on any day.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Snapshot returns the cached state for userID. The zero Snapshot is
// returned before the first refresh.
func (s *Store) Snapshot(userID int64) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(s.snaps[userID])
}

// OnDataChange registers fn to run after every successful or rolled-back
// mutation and every refresh. The returned function unsubscribes.
func (s *Store) OnDataChange(fn func(userID int64)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// ListenRefresh subscribes the store to the process-wide refresh signal so
// surfaces without a store reference can request a reload.
func (s *Store) ListenRefresh() func() {
	return OnRefreshRequest(func(userID int64) {
		if err := s.RefreshData(context.Background(), userID); err != nil {
			// Refresh is advisory; the cache keeps its last good state.
			return
		}
	})
}

// RefreshData reloads every collection for userID from persistence and
// replaces the cached snapshot wholesale. All fetches are combined before a
// single swap, so overlapping calls interleave only at the swap and the
// last completed reload wins.
func (s *Store) RefreshData(ctx context.Context, userID int64) error {
	routines, err := s.backend.ListRoutines(ctx, userID)
	if err != nil {
		return fmt.Errorf("load routines: %w", err)
	}
	for i := range routines {
		steps, err := s.backend.ListRoutineSteps(ctx, routines[i].ID)
		if err != nil {
			return fmt.Errorf("load routine steps: %w", err)
		}
		routines[i].Steps = steps
	}
	inventory, err := s.backend.ListInventory(ctx, userID)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	checkIns, err := s.backend.ListCheckIns(ctx, userID)
	if err != nil {
		return fmt.Errorf("load check-ins: %w", err)
	}
	goals, err := s.backend.ListGoals(ctx, userID)
	if err != nil {
		return fmt.Errorf("load goals: %w", err)
	}

	s.mu.Lock()
	s.snaps[userID] = Snapshot{
		Routines:  routines,
		Inventory: inventory,
		Products:  products,
		CheckIns:  checkIns,
		Goals:     goals,
	}
	s.mu.Unlock()
	s.notify(userID)
	return nil
}

// UpdateRoutine upserts a routine and its steps.
func (s *Store) UpdateRoutine(ctx context.Context, r domain.Routine) error {
	prev := s.swap(r.UserID, func(snap *Snapshot) {
		snap.Routines = upsertRoutine(snap.Routines, r)
	})
	err := s.backend.SaveRoutine(ctx, r)
	if err == nil {
		err = s.backend.ReplaceRoutineSteps(ctx, r.ID, r.Steps)
	}
	return s.settle(r.UserID, prev, err)
}

// MarkRoutineComplete upserts today's check-in, setting only the completion
// flag matching the routine. A routine counts as evening when its type or
// name contains "evening" case-insensitively. A fresh record leaves the
// non-applicable flag nil: "not yet tracked" rather than "not done".
func (s *Store) MarkRoutineComplete(ctx context.Context, userID int64, routine domain.Routine) error {
	evening := strings.Contains(strings.ToLower(routine.Type), "evening") ||
		strings.Contains(strings.ToLower(routine.Name), "evening")

	today := domain.Today(s.now())
	rec := domain.CheckIn{ID: uuid.NewString(), UserID: userID, Date: today}
	if existing, ok := findCheckIn(s.Snapshot(userID).CheckIns, today); ok {
		rec = existing
	}
	if evening {
		rec.EveningCompleted = domain.Bool(true)
	} else {
		rec.MorningCompleted = domain.Bool(true)
	}

	prev := s.swap(userID, func(snap *Snapshot) {
		snap.CheckIns = upsertCheckIn(snap.CheckIns, rec)
	})
	return s.settle(userID, prev, s.backend.SaveCheckIn(ctx, rec))
}

// AddCheckIn upserts a full check-in record for its date.
func (s *Store) AddCheckIn(ctx context.Context, c domain.CheckIn) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	prev := s.swap(c.UserID, func(snap *Snapshot) {
		snap.CheckIns = upsertCheckIn(snap.CheckIns, c)
	})
	return s.settle(c.UserID, prev, s.backend.SaveCheckIn(ctx, c))
}

// AddGoal persists a new goal.
func (s *Store) AddGoal(ctx context.Context, g domain.Goal) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = domain.GoalActive
	}
	prev := s.swap(g.UserID, func(snap *Snapshot) {
		snap.Goals = append(append([]domain.Goal(nil), snap.Goals...), g)
	})
	return s.settle(g.UserID, prev, s.backend.SaveGoal(ctx, g))
}

// AddProductToInventory registers the product (upsert by ID) and upserts an
// inventory row for it, keyed naturally by (user, product) so a double
// dispatch lands on the same row.
func (s *Store) AddProductToInventory(ctx context.Context, userID int64, p domain.Product, amountRemaining int) (domain.InventoryItem, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	item := domain.InventoryItem{
		ID:              uuid.NewString(),
		UserID:          userID,
		ProductID:       p.ID,
		AmountRemaining: amountRemaining,
		PurchaseDate:    domain.Today(s.now()),
	}
	for _, existing := range s.Snapshot(userID).Inventory {
		if existing.ProductID == p.ID {
			item.ID = existing.ID
			item.PurchaseDate = existing.PurchaseDate
			break
		}
	}

	prev := s.swap(userID, func(snap *Snapshot) {
		snap.Products = upsertProduct(snap.Products, p)
		snap.Inventory = upsertInventory(snap.Inventory, item)
	})
	err := s.backend.SaveProduct(ctx, p)
	if err == nil {
		err = s.backend.SaveInventoryItem(ctx, item)
	}
	if err := s.settle(userID, prev, err); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

// UpdateInventoryItem upserts an inventory row by ID.
func (s *Store) UpdateInventoryItem(ctx context.Context, it domain.InventoryItem) error {
	prev := s.swap(it.UserID, func(snap *Snapshot) {
		snap.Inventory = upsertInventory(snap.Inventory, it)
	})
	return s.settle(it.UserID, prev, s.backend.SaveInventoryItem(ctx, it))
}

// MarkProductAsUsed logs one use of an inventory item, consuming usageStep
// percentage points, floored at zero.
func (s *Store) MarkProductAsUsed(ctx context.Context, userID int64, itemID string) error {
	var updated domain.InventoryItem
	found := false
	for _, it := range s.Snapshot(userID).Inventory {
		if it.ID == itemID {
			updated = it
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("inventory item %s not found", itemID)
	}
	updated.AmountRemaining -= usageStep
	if updated.AmountRemaining < 0 {
		updated.AmountRemaining = 0
	}
	return s.UpdateInventoryItem(ctx, updated)
}

// DeleteProductFromInventory removes an inventory row.
func (s *Store) DeleteProductFromInventory(ctx context.Context, userID int64, itemID string) error {
	prev := s.swap(userID, func(snap *Snapshot) {
		out := make([]domain.InventoryItem, 0, len(snap.Inventory))
		for _, it := range snap.Inventory {
			if it.ID != itemID {
				out = append(out, it)
			}
		}
		snap.Inventory = out
	})
	return s.settle(userID, prev, s.backend.DeleteInventoryItem(ctx, itemID))
}

// swap applies an optimistic cache update and returns the pre-mutation
// snapshot for rollback.
func (s *Store) swap(userID int64, apply func(*Snapshot)) Snapshot {
	s.mu.Lock()
	prev := s.snaps[userID]
	next := copySnapshot(prev)
	apply(&next)
	s.snaps[userID] = next
	s.mu.Unlock()
	return prev
}

// settle finishes a mutation: on write failure the pre-mutation snapshot is
// restored so the cache never stays ahead of the backend. Subscribers are
// notified either way.
func (s *Store) settle(userID int64, prev Snapshot, err error) error {
	if err != nil {
		s.mu.Lock()
		s.snaps[userID] = prev
		s.mu.Unlock()
		s.notify(userID)
		return fmt.Errorf("write through: %w", err)
	}
	s.notify(userID)
	return nil
}

func (s *Store) notify(userID int64) {
	s.mu.RLock()
	fns := make([]func(int64), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(userID)
	}
}

func copySnapshot(in Snapshot) Snapshot {
	return Snapshot{
		Routines:  append([]domain.Routine(nil), in.Routines...),
		Inventory: append([]domain.InventoryItem(nil), in.Inventory...),
		Products:  append([]domain.Product(nil), in.Products...),
		CheckIns:  append([]domain.CheckIn(nil), in.CheckIns...),
		Goals:     append([]domain.Goal(nil), in.Goals...),
	}
}

func upsertRoutine(list []domain.Routine, r domain.Routine) []domain.Routine {
	for i := range list {
		if list[i].ID == r.ID {
			list[i] = r
			return list
		}
	}
	return append(list, r)
}

func upsertProduct(list []domain.Product, p domain.Product) []domain.Product {
	for i := range list {
		if list[i].ID == p.ID {
			list[i] = p
			return list
		}
	}
	return append(list, p)
}

func upsertInventory(list []domain.InventoryItem, it domain.InventoryItem) []domain.InventoryItem {
	for i := range list {
		if list[i].ID == it.ID {
			list[i] = it
			return list
		}
	}
	return append(list, it)
}

func upsertCheckIn(list []domain.CheckIn, c domain.CheckIn) []domain.CheckIn {
	for i := range list {
		if list[i].Date == c.Date {
			list[i] = c
			return list
		}
	}
	return append(list, c)
}

func findCheckIn(list []domain.CheckIn, date string) (domain.CheckIn, bool) {
	for _, c := range list {
		if c.Date == date {
			return c, true
		}
	}
	return domain.CheckIn{}, false
}
