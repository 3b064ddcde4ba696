package model

import "time"

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

func (r Role) Valid() bool {
	return r == RoleParent || r == RoleChild
}

// User carries both identity and gamification counters. WalletBalance is the
// spendable balance; ExperiencePoints is lifetime earned and never decreases.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Avatar           string     `json:"avatar"`
	Role             Role       `json:"role"`
	WalletBalance    int        `json:"wallet_balance"`
	ExperiencePoints int        `json:"experience_points"`
	Level            int        `json:"level"`
	Streak           int        `json:"streak"`
	LastCompletedOn  *time.Time `json:"last_completed_on,omitempty"`
	TasksCompleted   int        `json:"tasks_completed"`
	Badges           []string   `json:"badges"`
	FamilyID         string     `json:"family_id,omitempty"`
	ParentID         string     `json:"parent_id,omitempty"`
	FunFact          string     `json:"fun_fact,omitempty"`
	HasPIN           bool       `json:"has_pin"`
	Version          int64      `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (u User) IsParent() bool { return u.Role == RoleParent }

func (u User) HasBadge(id string) bool {
	for _, b := range u.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// LeaderboardEntry is one row of a family's ranking by experience.
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	Avatar           string `json:"avatar"`
	Role             Role   `json:"role"`
	Level            int    `json:"level"`
	ExperiencePoints int    `json:"experience_points"`
	WalletBalance    int    `json:"wallet_balance"`
	Streak           int    `json:"streak"`
}
