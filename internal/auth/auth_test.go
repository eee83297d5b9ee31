package auth

import (
	"path/filepath"
	"testing"
)

func TestServiceSeedsFromRepoAndInitial(t *testing.T) {
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "accounts.json"))
	if err != nil {
		t.Fatalf("repo: %v", err)
	}
	if err := repo.Upsert(User{ID: 10, Username: "ada"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	svc, err := NewWithRepo(repo, []int64{20})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if !svc.IsAllowed(10) || !svc.IsAllowed(20) {
		t.Fatalf("seeded accounts missing")
	}
	if svc.IsAllowed(30) {
		t.Fatalf("unknown user allowed")
	}
}

func TestServiceUpsertRemovePersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("repo: %v", err)
	}
	svc, err := NewWithRepo(repo, nil)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if err := svc.Upsert(User{ID: 1, Username: "u"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := svc.Remove(1); err != nil {
		t.Fatalf("remove: %v", err)
	}

	repo2, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	users, err := repo2.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("remove not persisted: %v", users)
	}
}
