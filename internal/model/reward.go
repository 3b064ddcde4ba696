package model

import "time"

type Reward struct {
	ID          string    `json:"id"`
	FamilyID    string    `json:"family_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Cost        int       `json:"cost"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
}

type RewardRedemption struct {
	ID          string    `json:"id"`
	RewardID    string    `json:"reward_id"`
	UserID      string    `json:"user_id"`
	PointsSpent int       `json:"points_spent"`
	RedeemedAt  time.Time `json:"redeemed_at"`
}
