package store

import (
	"errors"
	"testing"

	"github.com/anirpro14/tidykitty/internal/model"
)

func TestUserCreate(t *testing.T) {
	s := setupTestDB(t)

	u, err := s.users.Create(model.User{Name: "Alice", Avatar: "🐱", Role: model.RoleParent}, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Name != "Alice" {
		t.Errorf("name = %q, want %q", u.Name, "Alice")
	}
	if u.ID == "" {
		t.Error("expected non-empty ID")
	}
	if u.Level != 1 || u.WalletBalance != 0 || u.ExperiencePoints != 0 {
		t.Errorf("counters = level %d wallet %d xp %d, want 1/0/0", u.Level, u.WalletBalance, u.ExperiencePoints)
	}
	if !u.HasPIN {
		t.Error("expected HasPIN")
	}
	if u.FamilyID != "" {
		t.Errorf("family_id = %q, want empty", u.FamilyID)
	}
	if u.Badges == nil || len(u.Badges) != 0 {
		t.Errorf("badges = %v, want empty slice", u.Badges)
	}
	if u.Version != 1 {
		t.Errorf("version = %d, want 1", u.Version)
	}
}

func TestUserCreateInvalidRole(t *testing.T) {
	s := setupTestDB(t)

	if _, err := s.users.Create(model.User{Name: "X", Role: "admin"}, ""); err == nil {
		t.Fatal("expected error for invalid role, got nil")
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	s := setupTestDB(t)

	u, err := s.users.GetByID("missing")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u != nil {
		t.Error("expected nil for missing user")
	}
}

func TestUserPIN(t *testing.T) {
	s := setupTestDB(t)

	u, _ := s.users.Create(model.User{Name: "Kid", Role: model.RoleChild}, "")
	if u.HasPIN {
		t.Error("expected no PIN")
	}
	hash, err := s.users.PINHash(u.ID)
	if err != nil {
		t.Fatalf("pin hash: %v", err)
	}
	if hash != "" {
		t.Errorf("hash = %q, want empty", hash)
	}

	if err := s.users.SetPIN(u.ID, "$2a$hash"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	hash, _ = s.users.PINHash(u.ID)
	if hash != "$2a$hash" {
		t.Errorf("hash = %q, want %q", hash, "$2a$hash")
	}
	got, _ := s.users.GetByID(u.ID)
	if !got.HasPIN {
		t.Error("expected HasPIN after set")
	}
}

func TestUserUpdateProfile(t *testing.T) {
	s := setupTestDB(t)

	u, _ := s.users.Create(model.User{Name: "Kid", Role: model.RoleChild}, "")
	got, err := s.users.UpdateProfile(u.ID, " Max ", "🦊", "Likes dinosaurs")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if got.Name != "Max" || got.Avatar != "🦊" || got.FunFact != "Likes dinosaurs" {
		t.Errorf("profile = %q/%q/%q", got.Name, got.Avatar, got.FunFact)
	}
}

func TestUserJoinOnce(t *testing.T) {
	s := setupTestDB(t)
	fam, parent, _ := seedFamily(t, s)

	kid, _ := s.users.Create(model.User{Name: "Leo", Role: model.RoleChild}, "")
	if err := s.users.Join(kid.ID, fam.ID, parent.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	got, _ := s.users.GetByID(kid.ID)
	if got.FamilyID != fam.ID {
		t.Errorf("family_id = %q, want %q", got.FamilyID, fam.ID)
	}
	if got.ParentID != parent.ID {
		t.Errorf("parent_id = %q, want %q", got.ParentID, parent.ID)
	}
	if got.Version != 2 {
		t.Errorf("version = %d, want 2", got.Version)
	}

	if err := s.users.Join(kid.ID, fam.ID, ""); !errors.Is(err, ErrAlreadyInFamily) {
		t.Errorf("second join err = %v, want ErrAlreadyInFamily", err)
	}
}

func TestUserListByFamilyJoinOrder(t *testing.T) {
	s := setupTestDB(t)
	fam, parent, child := seedFamily(t, s)

	members, err := s.users.ListByFamily(fam.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len = %d, want 2", len(members))
	}
	if members[0].ID != parent.ID || members[1].ID != child.ID {
		t.Errorf("order = [%s %s], want [parent child]", members[0].Name, members[1].Name)
	}
}
