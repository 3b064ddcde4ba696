package ledger

import (
	"strings"
	"time"

	"github.com/anirpro14/tidykitty/internal/model"
)

// CompleteTaskCommand asks to complete a task. Validate on each command checks
// only its own fields; rules that depend on loaded records live in the ledger
// operations.
type CompleteTaskCommand struct {
	ActorID string
	TaskID  string
	At      time.Time
}

func (c CompleteTaskCommand) Validate() error {
	if strings.TrimSpace(c.ActorID) == "" {
		return invalid("actor_id", "is required")
	}
	if strings.TrimSpace(c.TaskID) == "" {
		return invalid("task_id", "is required")
	}
	if c.At.IsZero() {
		return invalid("at", "is required")
	}
	return nil
}

type RedeemRewardCommand struct {
	ActorID  string
	RewardID string
	At       time.Time
}

func (c RedeemRewardCommand) Validate() error {
	if strings.TrimSpace(c.ActorID) == "" {
		return invalid("actor_id", "is required")
	}
	if strings.TrimSpace(c.RewardID) == "" {
		return invalid("reward_id", "is required")
	}
	if c.At.IsZero() {
		return invalid("at", "is required")
	}
	return nil
}

type CreateTaskCommand struct {
	ActorID     string
	Title       string
	Description string
	Points      int
	Difficulty  model.Difficulty
	Category    string
	AssignedTo  *string
	DueDate     *time.Time
}

func (c *CreateTaskCommand) Validate() error {
	c.Title = strings.TrimSpace(c.Title)
	c.Category = strings.TrimSpace(c.Category)
	if c.AssignedTo != nil && strings.TrimSpace(*c.AssignedTo) == "" {
		c.AssignedTo = nil
	}
	if c.Difficulty == "" {
		c.Difficulty = model.DifficultyEasy
	}
	if strings.TrimSpace(c.ActorID) == "" {
		return invalid("actor_id", "is required")
	}
	if c.Title == "" {
		return invalid("title", "is required")
	}
	if c.Points <= 0 {
		return invalid("points", "must be positive")
	}
	if !c.Difficulty.Valid() {
		return invalid("difficulty", "must be easy, medium or hard")
	}
	return nil
}

type SuggestTaskCommand struct {
	ActorID         string
	Title           string
	Description     string
	SuggestedPoints int
	Category        string
}

func (c *SuggestTaskCommand) Validate() error {
	c.Title = strings.TrimSpace(c.Title)
	c.Category = strings.TrimSpace(c.Category)
	if strings.TrimSpace(c.ActorID) == "" {
		return invalid("actor_id", "is required")
	}
	if c.Title == "" {
		return invalid("title", "is required")
	}
	if c.SuggestedPoints <= 0 {
		return invalid("suggested_points", "must be positive")
	}
	return nil
}

type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

type ResolveSuggestionCommand struct {
	ActorID      string
	SuggestionID string
	Decision     Decision
	Reason       string
	At           time.Time
}

func (c *ResolveSuggestionCommand) Validate() error {
	c.Reason = strings.TrimSpace(c.Reason)
	if strings.TrimSpace(c.ActorID) == "" {
		return invalid("actor_id", "is required")
	}
	if strings.TrimSpace(c.SuggestionID) == "" {
		return invalid("suggestion_id", "is required")
	}
	if c.Decision != Approve && c.Decision != Reject {
		return invalid("decision", "must be approve or reject")
	}
	if c.At.IsZero() {
		return invalid("at", "is required")
	}
	return nil
}

// RewardCommand creates or replaces a catalog entry.
type RewardCommand struct {
	ActorID     string
	Title       string
	Description string
	Cost        int
	Category    string
	Image       string
	Available   bool
}

func (c *RewardCommand) Validate() error {
	c.Title = strings.TrimSpace(c.Title)
	c.Category = strings.TrimSpace(c.Category)
	if strings.TrimSpace(c.ActorID) == "" {
		return invalid("actor_id", "is required")
	}
	if c.Title == "" {
		return invalid("title", "is required")
	}
	if c.Cost <= 0 {
		return invalid("cost", "must be positive")
	}
	return nil
}
