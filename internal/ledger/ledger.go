// Package ledger holds the rules for how tasks and rewards move a user's
// points, level, streak and badges. Every function is pure: callers load the
// records, pass them in by value, and persist what comes back.
package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/anirpro14/tidykitty/internal/model"
)

// Completion is the outcome of a successful CompleteTask.
type Completion struct {
	Task          model.Task
	Assignee      model.User
	PointsEarned  int
	NewBadges     []string
	PreviousLevel int
}

func (c Completion) LeveledUp() bool {
	return c.Assignee.Level > c.PreviousLevel
}

// CompleteTask marks task done by actor and credits its points to assignee.
// The actor is either the assignee or a parent of the task's family.
func CompleteTask(actor, assignee model.User, task model.Task, at time.Time) (Completion, error) {
	if actor.FamilyID == "" || actor.FamilyID != task.FamilyID {
		return Completion{}, ErrNotAuthorized
	}
	if task.Completed {
		return Completion{}, ErrAlreadyCompleted
	}
	if task.AssignedTo == nil {
		return Completion{}, ErrNotAssigned
	}
	if assignee.ID != *task.AssignedTo {
		return Completion{}, invalid("assignee", "does not match the task")
	}
	if assignee.FamilyID != task.FamilyID {
		return Completion{}, ErrNotAuthorized
	}
	if actor.ID != assignee.ID && !actor.IsParent() {
		return Completion{}, ErrNotAssigned
	}

	completedAt := at
	completedBy := actor.ID
	task.Completed = true
	task.CompletedAt = &completedAt
	task.CompletedBy = &completedBy

	prev := max(assignee.Level, 1)
	u := assignee
	u.Badges = slices.Clone(assignee.Badges)
	u.WalletBalance += task.Points
	u.ExperiencePoints += task.Points
	u.TasksCompleted++

	day := CalendarDay(at)
	u.Streak = NextStreak(assignee.Streak, assignee.LastCompletedOn, day)
	u.LastCompletedOn = &day

	derived, _ := DeriveLevel(u.ExperiencePoints)
	u.Level = max(prev, derived)

	stats := StatsFor(u)
	stats.LastCompletedAt = &completedAt
	fresh := EvaluateBadges(stats, u.Badges)
	u.Badges = append(u.Badges, fresh...)

	return Completion{
		Task:          task,
		Assignee:      u,
		PointsEarned:  task.Points,
		NewBadges:     fresh,
		PreviousLevel: prev,
	}, nil
}

// Redemption is the outcome of a successful RedeemReward.
type Redemption struct {
	User        model.User
	Reward      model.Reward
	PointsSpent int
}

// RedeemReward spends reward.Cost from the user's wallet. Experience is
// never touched by spending.
func RedeemReward(user model.User, reward model.Reward) (Redemption, error) {
	if user.FamilyID == "" || user.FamilyID != reward.FamilyID {
		return Redemption{}, ErrNotAuthorized
	}
	if !reward.Available {
		return Redemption{}, ErrRewardUnavailable
	}
	if user.WalletBalance < reward.Cost {
		return Redemption{}, fmt.Errorf("%w: balance %d, cost %d", ErrInsufficientPoints, user.WalletBalance, reward.Cost)
	}
	user.WalletBalance -= reward.Cost
	return Redemption{User: user, Reward: reward, PointsSpent: reward.Cost}, nil
}

func requireParent(u model.User) error {
	if !u.IsParent() || u.FamilyID == "" {
		return ErrNotAuthorized
	}
	return nil
}

func childOf(roster []model.User, id, familyID string) bool {
	for _, m := range roster {
		if m.ID == id {
			return m.Role == model.RoleChild && m.FamilyID == familyID
		}
	}
	return false
}

// CreateTask builds a new task from cmd. roster is the creator's family; an
// assignee, when given, must be a child in it. An unassigned task is kept
// for later assignment.
func CreateTask(cmd CreateTaskCommand, creator model.User, roster []model.User) (model.Task, error) {
	if err := cmd.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := requireParent(creator); err != nil {
		return model.Task{}, err
	}
	if cmd.AssignedTo != nil && !childOf(roster, *cmd.AssignedTo, creator.FamilyID) {
		return model.Task{}, invalid("assigned_to", "must be a child in your family")
	}
	var due *time.Time
	if cmd.DueDate != nil {
		d := CalendarDay(*cmd.DueDate)
		due = &d
	}
	return model.Task{
		FamilyID:    creator.FamilyID,
		Title:       cmd.Title,
		Description: cmd.Description,
		Points:      cmd.Points,
		Difficulty:  cmd.Difficulty,
		Category:    cmd.Category,
		AssignedTo:  cmd.AssignedTo,
		AssignedBy:  creator.ID,
		DueDate:     due,
	}, nil
}

// AssignTask hands an open task to a child of the same family.
func AssignTask(task model.Task, parent, child model.User) (model.Task, error) {
	if err := requireParent(parent); err != nil {
		return model.Task{}, err
	}
	if parent.FamilyID != task.FamilyID {
		return model.Task{}, ErrNotAuthorized
	}
	if task.Completed {
		return model.Task{}, ErrAlreadyCompleted
	}
	if child.Role != model.RoleChild || child.FamilyID != task.FamilyID {
		return model.Task{}, invalid("assigned_to", "must be a child in your family")
	}
	id := child.ID
	task.AssignedTo = &id
	task.AssignedBy = parent.ID
	return task, nil
}

// SuggestTask records a child's idea for a new task, pending parent review.
func SuggestTask(cmd SuggestTaskCommand, child model.User, at time.Time) (model.TaskSuggestion, error) {
	if err := cmd.Validate(); err != nil {
		return model.TaskSuggestion{}, err
	}
	if child.Role != model.RoleChild || child.FamilyID == "" {
		return model.TaskSuggestion{}, ErrNotAuthorized
	}
	return model.TaskSuggestion{
		FamilyID:        child.FamilyID,
		Title:           cmd.Title,
		Description:     cmd.Description,
		SuggestedPoints: cmd.SuggestedPoints,
		Category:        cmd.Category,
		SuggestedBy:     child.ID,
		Status:          model.SuggestionPending,
		CreatedAt:       at,
	}, nil
}

// Resolution is the outcome of ResolveSuggestion. Task is set only on
// approval and has no ID yet.
type Resolution struct {
	Suggestion model.TaskSuggestion
	Task       *model.Task
}

// ResolveSuggestion moves a pending suggestion to its terminal state. An
// approval materializes a task assigned to the child who suggested it.
func ResolveSuggestion(cmd ResolveSuggestionCommand, s model.TaskSuggestion, parent model.User) (Resolution, error) {
	if err := cmd.Validate(); err != nil {
		return Resolution{}, err
	}
	if s.Status != model.SuggestionPending {
		return Resolution{}, ErrSuggestionResolved
	}
	if err := requireParent(parent); err != nil {
		return Resolution{}, err
	}
	if parent.FamilyID != s.FamilyID {
		return Resolution{}, ErrNotAuthorized
	}

	at := cmd.At
	resolver := parent.ID
	s.ParentResponse = cmd.Reason
	s.ResolvedAt = &at
	s.ResolvedBy = &resolver

	if cmd.Decision == Reject {
		s.Status = model.SuggestionRejected
		return Resolution{Suggestion: s}, nil
	}

	s.Status = model.SuggestionApproved
	assignee := s.SuggestedBy
	suggestionID := s.ID
	task := model.Task{
		FamilyID:     s.FamilyID,
		Title:        s.Title,
		Description:  s.Description,
		Points:       s.SuggestedPoints,
		Difficulty:   DifficultyFor(s.SuggestedPoints),
		Category:     s.Category,
		AssignedTo:   &assignee,
		AssignedBy:   parent.ID,
		SuggestionID: &suggestionID,
		CreatedAt:    at,
	}
	return Resolution{Suggestion: s, Task: &task}, nil
}

// DifficultyFor picks a difficulty for a task that arrived without one.
func DifficultyFor(points int) model.Difficulty {
	switch {
	case points <= 10:
		return model.DifficultyEasy
	case points <= 25:
		return model.DifficultyMedium
	default:
		return model.DifficultyHard
	}
}

// NewReward builds a catalog entry in the parent's family.
func NewReward(cmd RewardCommand, parent model.User) (model.Reward, error) {
	if err := cmd.Validate(); err != nil {
		return model.Reward{}, err
	}
	if err := requireParent(parent); err != nil {
		return model.Reward{}, err
	}
	return model.Reward{
		FamilyID:    parent.FamilyID,
		Title:       cmd.Title,
		Description: cmd.Description,
		Cost:        cmd.Cost,
		Category:    cmd.Category,
		Image:       cmd.Image,
		Available:   cmd.Available,
	}, nil
}

// EditReward applies cmd to an existing reward of the parent's family.
func EditReward(cmd RewardCommand, existing model.Reward, parent model.User) (model.Reward, error) {
	r, err := NewReward(cmd, parent)
	if err != nil {
		return model.Reward{}, err
	}
	if existing.FamilyID != parent.FamilyID {
		return model.Reward{}, ErrNotAuthorized
	}
	r.ID = existing.ID
	r.CreatedAt = existing.CreatedAt
	return r, nil
}

// CanManage reports whether u may edit or delete family-owned records.
func CanManage(u model.User, familyID string) bool {
	return u.IsParent() && u.FamilyID != "" && u.FamilyID == familyID
}
