package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/anirpro14/tidykitty/internal/model"
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	err := scanner.Scan(&f.ID, &f.Name, &f.OwnerID, &f.InviteCode, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.Members = []model.User{}
	return &f, nil
}

const familyCols = `id, name, owner_id, invite_code, created_at`

// Create makes a family owned by ownerID and moves the owner into it. The
// invite code is regenerated on collision.
func (s *FamilyStore) Create(name, ownerID string) (*model.Family, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := newID()
	now := time.Now().UTC()
	inserted := false
	for attempt := 0; attempt < maxCodeAttempts && !inserted; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(
			`INSERT INTO families (id, name, owner_id, invite_code, created_at) VALUES (?, ?, ?, ?, ?)`,
			id, name, ownerID, code, now,
		)
		switch {
		case err == nil:
			inserted = true
		case isUniqueViolation(err):
			continue
		default:
			return nil, fmt.Errorf("insert family: %w", err)
		}
	}
	if !inserted {
		return nil, fmt.Errorf("insert family: no unique invite code after %d attempts", maxCodeAttempts)
	}

	if err := joinFamily(tx, ownerID, id, ""); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit family: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns the family with its members in join order.
func (s *FamilyStore) GetByID(id string) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	return s.load(row, "get family")
}

// GetByInviteCode looks up a family by an already normalized code.
func (s *FamilyStore) GetByInviteCode(code string) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE invite_code = ?`, code)
	return s.load(row, "get family by invite code")
}

func (s *FamilyStore) load(row *sql.Row, op string) (*model.Family, error) {
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	members, err := listFamilyUsers(s.db, f.ID)
	if err != nil {
		return nil, err
	}
	if members != nil {
		f.Members = members
	}
	return f, nil
}

// RotateInviteCode replaces the family's invite code and returns the new one,
// or "" when the family does not exist.
func (s *FamilyStore) RotateInviteCode(id string) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return "", err
		}
		result, err := s.db.Exec(`UPDATE families SET invite_code = ? WHERE id = ?`, code, id)
		if isUniqueViolation(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("rotate invite code: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return "", fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return "", nil
		}
		return code, nil
	}
	return "", fmt.Errorf("rotate invite code: no unique code after %d attempts", maxCodeAttempts)
}

func (s *FamilyStore) UpdateName(id, name string) (*model.Family, error) {
	_, err := s.db.Exec(`UPDATE families SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update family: %w", err)
	}
	return s.GetByID(id)
}
