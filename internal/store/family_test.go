package store

import (
	"testing"

	"github.com/anirpro14/tidykitty/internal/model"
)

func TestFamilyCreate(t *testing.T) {
	s := setupTestDB(t)

	owner, _ := s.users.Create(model.User{Name: "Dad", Role: model.RoleParent}, "")
	fam, err := s.families.Create("The Lees", owner.ID)
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	if fam.Name != "The Lees" {
		t.Errorf("name = %q, want %q", fam.Name, "The Lees")
	}
	if fam.OwnerID != owner.ID {
		t.Errorf("owner = %q, want %q", fam.OwnerID, owner.ID)
	}
	if len(fam.InviteCode) != inviteCodeLength {
		t.Errorf("invite code = %q, want %d chars", fam.InviteCode, inviteCodeLength)
	}
	if len(fam.Members) != 1 || fam.Members[0].ID != owner.ID {
		t.Fatalf("members = %+v, want owner only", fam.Members)
	}
	if fam.Members[0].FamilyID != fam.ID {
		t.Errorf("owner family_id = %q, want %q", fam.Members[0].FamilyID, fam.ID)
	}
}

func TestFamilyCreateOwnerAlreadyMember(t *testing.T) {
	s := setupTestDB(t)
	_, parent, _ := seedFamily(t, s)

	if _, err := s.families.Create("Second", parent.ID); err == nil {
		t.Fatal("expected error for owner already in a family")
	}
	// The failed create must not leave an orphan family behind.
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM families`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("families = %d, want 1", n)
	}
}

func TestFamilyGetByInviteCode(t *testing.T) {
	s := setupTestDB(t)
	fam, _, child := seedFamily(t, s)

	got, err := s.families.GetByInviteCode(fam.InviteCode)
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got == nil || got.ID != fam.ID {
		t.Fatalf("got %+v, want family %s", got, fam.ID)
	}
	if got.Member(child.ID) == nil {
		t.Error("expected child in members")
	}

	missing, err := s.families.GetByInviteCode("NOPE2345")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown code")
	}
}

func TestFamilyRotateInviteCode(t *testing.T) {
	s := setupTestDB(t)
	fam, _, _ := seedFamily(t, s)

	code, err := s.families.RotateInviteCode(fam.ID)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if code == "" || code == fam.InviteCode {
		t.Errorf("code = %q, want a new code (old %q)", code, fam.InviteCode)
	}
	if old, _ := s.families.GetByInviteCode(fam.InviteCode); old != nil {
		t.Error("old code still resolves")
	}

	code, err = s.families.RotateInviteCode("missing")
	if err != nil {
		t.Fatalf("rotate missing: %v", err)
	}
	if code != "" {
		t.Errorf("code = %q, want empty for missing family", code)
	}
}
