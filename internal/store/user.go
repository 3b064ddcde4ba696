package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/anirpro14/tidykitty/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var lastOn, familyID, parentID sql.NullString
	var hasPIN int

	err := scanner.Scan(
		&u.ID, &u.Name, &u.Avatar, &u.Role,
		&u.WalletBalance, &u.ExperiencePoints, &u.Level, &u.Streak, &lastOn, &u.TasksCompleted,
		&familyID, &parentID, &u.FunFact, &hasPIN, &u.Version, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.LastCompletedOn, err = parseDate(lastOn)
	if err != nil {
		return nil, fmt.Errorf("parse last_completed_on: %w", err)
	}
	u.FamilyID = familyID.String
	u.ParentID = parentID.String
	u.HasPIN = hasPIN != 0
	u.Badges = []string{}
	return &u, nil
}

const userCols = `id, name, avatar, role, wallet_balance, experience_points, level, streak,
	last_completed_on, tasks_completed, family_id, parent_id, fun_fact,
	CASE WHEN pin IS NULL OR pin = '' THEN 0 ELSE 1 END, version, created_at, updated_at`

// Create inserts a user. A non-empty FamilyID joins the family at creation.
func (s *UserStore) Create(u model.User, pinHash string) (*model.User, error) {
	id, err := createUser(s.db, u, pinHash)
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func createUser(q querier, u model.User, pinHash string) (string, error) {
	id := newID()
	now := time.Now().UTC()
	var joinedAt sql.NullTime
	if u.FamilyID != "" {
		joinedAt = sql.NullTime{Time: now, Valid: true}
	}
	_, err := q.Exec(
		`INSERT INTO users (id, name, avatar, role, family_id, parent_id, fun_fact, pin, joined_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, u.Name, u.Avatar, u.Role, nullText(u.FamilyID), nullText(u.ParentID), u.FunFact,
		nullText(pinHash), joinedAt, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	return getUser(s.db, id)
}

func getUser(q querier, id string) (*model.User, error) {
	row := q.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u.Badges, err = userBadges(q, id); err != nil {
		return nil, err
	}
	return u, nil
}

// ListByFamily returns the family's members in join order.
func (s *UserStore) ListByFamily(familyID string) ([]model.User, error) {
	return listFamilyUsers(s.db, familyID)
}

func listFamilyUsers(q querier, familyID string) ([]model.User, error) {
	rows, err := q.Query(
		`SELECT `+userCols+` FROM users WHERE family_id = ?
		 ORDER BY COALESCE(joined_at, created_at) ASC, created_at ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list users by family: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	rows.Close()

	badges, err := familyBadges(q, familyID)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if b, ok := badges[users[i].ID]; ok {
			users[i].Badges = b
		}
	}
	return users, nil
}

func userBadges(q querier, userID string) ([]string, error) {
	rows, err := q.Query(
		`SELECT badge_id FROM user_badges WHERE user_id = ? ORDER BY unlocked_at ASC, rowid ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	badges := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		badges = append(badges, id)
	}
	return badges, rows.Err()
}

func familyBadges(q querier, familyID string) (map[string][]string, error) {
	rows, err := q.Query(
		`SELECT b.user_id, b.badge_id FROM user_badges b
		 JOIN users u ON u.id = b.user_id
		 WHERE u.family_id = ?
		 ORDER BY b.unlocked_at ASC, b.rowid ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list family badges: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var userID, badgeID string
		if err := rows.Scan(&userID, &badgeID); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		out[userID] = append(out[userID], badgeID)
	}
	return out, rows.Err()
}

func (s *UserStore) UpdateProfile(id, name, avatar, funFact string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, avatar = ?, fun_fact = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(name), avatar, funFact, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) SetPIN(id, pinHash string) error {
	_, err := s.db.Exec(
		`UPDATE users SET pin = ?, updated_at = ? WHERE id = ?`,
		nullText(pinHash), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

// PINHash returns the stored bcrypt hash, or "" when the user has no PIN.
func (s *UserStore) PINHash(id string) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRow(`SELECT pin FROM users WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pin: %w", err)
	}
	return hash.String, nil
}

// Join moves a user without a family into familyID. parentID, when non-empty,
// links a child to the family owner.
func (s *UserStore) Join(userID, familyID, parentID string) error {
	return joinFamily(s.db, userID, familyID, parentID)
}

func joinFamily(q querier, userID, familyID, parentID string) error {
	now := time.Now().UTC()
	result, err := q.Exec(
		`UPDATE users SET family_id = ?, parent_id = COALESCE(?, parent_id), joined_at = ?,
		 version = version + 1, updated_at = ?
		 WHERE id = ? AND family_id IS NULL`,
		familyID, nullText(parentID), now, now, userID,
	)
	if err != nil {
		return fmt.Errorf("join family: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrAlreadyInFamily
	}
	return nil
}

func (s *UserStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
