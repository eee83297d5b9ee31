package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"ai-skincoach/internal/domain"
)

// Collection file names under the data directory.
const (
	routinesFile     = "routines.json"
	routineStepsFile = "routine_steps.json"
	productsFile     = "products.json"
	inventoryFile    = "user_inventory.json"
	checkInsFile     = "daily_checkins.json"
	goalsFile        = "goals.json"
	appointmentsFile = "appointments.json"
)

// FileStore keeps each entity collection in one JSON file. A missing or
// empty file reads as an empty collection; saves truncate and rewrite.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) load(name string, v interface{}) error {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()
	if err := json.NewDecoder(f).Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) save(name string, v interface{}) error {
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) ListRoutines(ctx context.Context, userID int64) ([]domain.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Routine
	if err := s.load(routinesFile, &all); err != nil {
		return nil, err
	}
	var out []domain.Routine
	for _, r := range all {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *FileStore) SaveRoutine(ctx context.Context, r domain.Routine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Routine
	if err := s.load(routinesFile, &all); err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == r.ID {
			all[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, r)
	}
	return s.save(routinesFile, all)
}

func (s *FileStore) DeleteRoutine(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Routine
	if err := s.load(routinesFile, &all); err != nil {
		return err
	}
	out := all[:0]
	for _, r := range all {
		if r.ID != id {
			out = append(out, r)
		}
	}
	if err := s.save(routinesFile, out); err != nil {
		return err
	}
	// Steps belong to their routine.
	return s.replaceStepsLocked(id, nil)
}

func (s *FileStore) ListRoutineSteps(ctx context.Context, routineID string) ([]domain.RoutineStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.RoutineStep
	if err := s.load(routineStepsFile, &all); err != nil {
		return nil, err
	}
	var out []domain.RoutineStep
	for _, st := range all {
		if st.RoutineID == routineID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *FileStore) ReplaceRoutineSteps(ctx context.Context, routineID string, steps []domain.RoutineStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceStepsLocked(routineID, steps)
}

func (s *FileStore) replaceStepsLocked(routineID string, steps []domain.RoutineStep) error {
	var all []domain.RoutineStep
	if err := s.load(routineStepsFile, &all); err != nil {
		return err
	}
	out := all[:0]
	for _, st := range all {
		if st.RoutineID != routineID {
			out = append(out, st)
		}
	}
	out = append(out, steps...)
	return s.save(routineStepsFile, out)
}

func (s *FileStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Product
	if err := s.load(productsFile, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *FileStore) SaveProduct(ctx context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Product
	if err := s.load(productsFile, &all); err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == p.ID {
			all[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, p)
	}
	return s.save(productsFile, all)
}

func (s *FileStore) ListInventory(ctx context.Context, userID int64) ([]domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.InventoryItem
	if err := s.load(inventoryFile, &all); err != nil {
		return nil, err
	}
	var out []domain.InventoryItem
	for _, it := range all {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *FileStore) SaveInventoryItem(ctx context.Context, it domain.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.InventoryItem
	if err := s.load(inventoryFile, &all); err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == it.ID {
			all[i] = it
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, it)
	}
	return s.save(inventoryFile, all)
}

func (s *FileStore) DeleteInventoryItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.InventoryItem
	if err := s.load(inventoryFile, &all); err != nil {
		return err
	}
	out := all[:0]
	for _, it := range all {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return s.save(inventoryFile, out)
}

func (s *FileStore) ListCheckIns(ctx context.Context, userID int64) ([]domain.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.CheckIn
	if err := s.load(checkInsFile, &all); err != nil {
		return nil, err
	}
	var out []domain.CheckIn
	for _, c := range all {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *FileStore) SaveCheckIn(ctx context.Context, c domain.CheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.CheckIn
	if err := s.load(checkInsFile, &all); err != nil {
		return err
	}
	replaced := false
	for i := range all {
		// Natural key: one record per user per day.
		if all[i].ID == c.ID || (all[i].UserID == c.UserID && all[i].Date == c.Date) {
			c.ID = all[i].ID
			all[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, c)
	}
	return s.save(checkInsFile, all)
}

func (s *FileStore) ListGoals(ctx context.Context, userID int64) ([]domain.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Goal
	if err := s.load(goalsFile, &all); err != nil {
		return nil, err
	}
	var out []domain.Goal
	for _, g := range all {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *FileStore) SaveGoal(ctx context.Context, g domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Goal
	if err := s.load(goalsFile, &all); err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == g.ID {
			all[i] = g
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, g)
	}
	return s.save(goalsFile, all)
}

func (s *FileStore) ListAppointments(ctx context.Context, userID int64) ([]domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Appointment
	if err := s.load(appointmentsFile, &all); err != nil {
		return nil, err
	}
	var out []domain.Appointment
	for _, a := range all {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *FileStore) SaveAppointment(ctx context.Context, a domain.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Appointment
	if err := s.load(appointmentsFile, &all); err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == a.ID {
			all[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, a)
	}
	return s.save(appointmentsFile, all)
}

func (s *FileStore) DeleteAppointment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Appointment
	if err := s.load(appointmentsFile, &all); err != nil {
		return err
	}
	out := all[:0]
	for _, a := range all {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return s.save(appointmentsFile, out)
}
