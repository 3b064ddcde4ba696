package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/anirpro14/tidykitty/internal/ledger"
	"github.com/anirpro14/tidykitty/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

// --- Reward methods ---

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var available int

	err := scanner.Scan(
		&r.ID, &r.FamilyID, &r.Title, &r.Description, &r.Cost, &r.Category, &r.Image,
		&available, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Available = available != 0
	return &r, nil
}

const rewardCols = `id, family_id, title, description, cost, category, image, available, created_at`

func (s *RewardStore) Create(r model.Reward) (*model.Reward, error) {
	id := newID()
	_, err := s.db.Exec(
		`INSERT INTO rewards (id, family_id, title, description, cost, category, image, available, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, r.FamilyID, r.Title, r.Description, r.Cost, r.Category, r.Image,
		boolInt(r.Available), nowUTC(r.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id string) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// ListByFamily returns the family's rewards, available first, then by cost
// and title. availableOnly hides rewards a parent switched off.
func (s *RewardStore) ListByFamily(familyID string, availableOnly bool) ([]model.Reward, error) {
	query := `SELECT ` + rewardCols + ` FROM rewards WHERE family_id = ?`
	if availableOnly {
		query += ` AND available = 1`
	}
	query += ` ORDER BY available DESC, cost ASC, title ASC`

	rows, err := s.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(r model.Reward) (*model.Reward, error) {
	_, err := s.db.Exec(
		`UPDATE rewards SET title = ?, description = ?, cost = ?, category = ?, image = ?, available = ?
		 WHERE id = ?`,
		r.Title, r.Description, r.Cost, r.Category, r.Image, boolInt(r.Available), r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(r.ID)
}

func (s *RewardStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// --- Redemption methods ---

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.RewardRedemption, error) {
	var r model.RewardRedemption
	err := scanner.Scan(&r.ID, &r.RewardID, &r.UserID, &r.PointsSpent, &r.RedeemedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const redemptionCols = `id, reward_id, user_id, points_spent, redeemed_at`

// Redeem spends the reward's current cost from the user's wallet and records
// the redemption, in one transaction. The balance check is part of the
// update, so concurrent redemptions cannot overdraw.
func (s *RewardStore) Redeem(userID, rewardID string, at time.Time) (*model.RewardRedemption, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var cost, available int
	err = tx.QueryRow(`SELECT cost, available FROM rewards WHERE id = ?`, rewardID).Scan(&cost, &available)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	if available == 0 {
		return nil, ledger.ErrRewardUnavailable
	}

	result, err := tx.Exec(
		`UPDATE users SET wallet_balance = wallet_balance - ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND wallet_balance >= ?`,
		cost, time.Now().UTC(), userID, cost,
	)
	if err != nil {
		return nil, fmt.Errorf("debit wallet: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, ledger.ErrInsufficientPoints
	}

	id := newID()
	redeemedAt := nowUTC(at)
	if _, err := tx.Exec(
		`INSERT INTO reward_redemptions (id, reward_id, user_id, points_spent, redeemed_at) VALUES (?, ?, ?, ?, ?)`,
		id, rewardID, userID, cost, redeemedAt,
	); err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}

	row := tx.QueryRow(`SELECT `+redemptionCols+` FROM reward_redemptions WHERE id = ?`, id)
	red, err := scanRedemption(row)
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit redemption: %w", err)
	}
	return red, nil
}

func (s *RewardStore) ListRedemptionsByUser(userID string) ([]model.RewardRedemption, error) {
	rows, err := s.db.Query(
		`SELECT `+redemptionCols+` FROM reward_redemptions WHERE user_id = ? ORDER BY redeemed_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions by user: %w", err)
	}
	defer rows.Close()

	var redemptions []model.RewardRedemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}
