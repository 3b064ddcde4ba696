package model

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Task is a unit of chore work. DueDate is a calendar date stored as UTC
// midnight. CompletedAt is only meaningful when Completed is true.
type Task struct {
	ID           string     `json:"id"`
	FamilyID     string     `json:"family_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Points       int        `json:"points"`
	Difficulty   Difficulty `json:"difficulty"`
	Category     string     `json:"category"`
	AssignedTo   *string    `json:"assigned_to"`
	AssignedBy   string     `json:"assigned_by"`
	Completed    bool       `json:"completed"`
	CompletedBy  *string    `json:"completed_by,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	SuggestionID *string    `json:"suggestion_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (t Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
