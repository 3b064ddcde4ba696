package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anirpro14/tidykitty/internal/chore"
	"github.com/anirpro14/tidykitty/internal/ledger"
	"github.com/anirpro14/tidykitty/internal/model"
	"github.com/anirpro14/tidykitty/internal/store"
	"github.com/anirpro14/tidykitty/internal/websocket"
	"github.com/sethvargo/go-retry"
)

// Completion retries reload and recompute when another update to the
// assignee or the task committed first. Retries back off with jitter.
const (
	maxCompleteRetries = 8
	completeRetryBase  = 2 * time.Millisecond
	completeRetryCap   = 100 * time.Millisecond
)

func completionBackoff() retry.Backoff {
	b := retry.NewExponential(completeRetryBase)
	b = retry.WithJitterPercent(50, b)
	b = retry.WithCappedDuration(completeRetryCap, b)
	return retry.WithMaxRetries(maxCompleteRetries, b)
}

// LedgerService runs tasks, rewards and suggestions through the ledger rules.
type LedgerService struct {
	users       *store.UserStore
	tasks       *store.TaskStore
	rewards     *store.RewardStore
	suggestions *store.SuggestionStore
	pub         Publisher
	clock       Clock
	logger      *slog.Logger
}

func NewLedgerService(
	us *store.UserStore,
	ts *store.TaskStore,
	rs *store.RewardStore,
	ss *store.SuggestionStore,
	pub Publisher,
	clock Clock,
	logger *slog.Logger,
) *LedgerService {
	return &LedgerService{
		users:       us,
		tasks:       ts,
		rewards:     rs,
		suggestions: ss,
		pub:         pub,
		clock:       clock,
		logger:      logger,
	}
}

func (s *LedgerService) member(id string) (*model.User, error) {
	u, err := loadUser(s.users.GetByID, id)
	if err != nil {
		return nil, err
	}
	if u.FamilyID == "" {
		return nil, ledger.ErrNotAuthorized
	}
	return u, nil
}

// task loads a task visible to actor. Tasks of other families read as missing.
func (s *LedgerService) task(actor *model.User, id string) (*model.Task, error) {
	t, err := s.tasks.GetByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.FamilyID != actor.FamilyID {
		return nil, notFound("task")
	}
	return t, nil
}

func (s *LedgerService) reward(actor *model.User, id string) (*model.Reward, error) {
	r, err := s.rewards.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil || r.FamilyID != actor.FamilyID {
		return nil, notFound("reward")
	}
	return r, nil
}

// --- Tasks ---

// CreateTask adds a task to the actor's family. A task without a category is
// filed by its title.
func (s *LedgerService) CreateTask(cmd ledger.CreateTaskCommand) (*model.Task, error) {
	actor, err := s.member(cmd.ActorID)
	if err != nil {
		return nil, err
	}
	roster, err := s.users.ListByFamily(actor.FamilyID)
	if err != nil {
		return nil, err
	}
	cmd.Category = chore.CategoryOr(cmd.Category, cmd.Title)
	draft, err := ledger.CreateTask(cmd, *actor, roster)
	if err != nil {
		return nil, err
	}
	draft.CreatedAt = s.clock.Now()

	t, err := s.tasks.Create(draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info("task created", "task_id", t.ID, "family_id", t.FamilyID, "points", t.Points)
	publish(s.pub, t.FamilyID, websocket.NewMessage("task", "created", t.ID, nil))
	return t, nil
}

func (s *LedgerService) GetTask(actorID, taskID string) (*chore.TaskWithStatus, error) {
	actor, err := s.member(actorID)
	if err != nil {
		return nil, err
	}
	t, err := s.task(actor, taskID)
	if err != nil {
		return nil, err
	}
	return &chore.TaskWithStatus{Task: *t, Status: chore.ComputeStatus(*t, s.clock.Now())}, nil
}

// ListTasks returns the actor's family tasks with their display status.
func (s *LedgerService) ListTasks(actorID string, f store.TaskFilter) ([]chore.TaskWithStatus, error) {
	actor, err := s.member(actorID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByFamily(actor.FamilyID, f)
	if err != nil {
		return nil, err
	}
	roster, err := s.users.ListByFamily(actor.FamilyID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(roster))
	for _, m := range roster {
		names[m.ID] = m.Name
	}
	return chore.WithStatus(tasks, names, s.clock.Now()), nil
}

// AssignTask hands an open task to a child of the family.
func (s *LedgerService) AssignTask(actorID, taskID, childID string) (*model.Task, error) {
	actor, err := s.member(actorID)
	if err != nil {
		return nil, err
	}
	t, err := s.task(actor, taskID)
	if err != nil {
		return nil, err
	}
	child, err := s.users.GetByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, invalid("assigned_to", "must be a child in your family")
	}
	assigned, err := ledger.AssignTask(*t, *actor, *child)
	if err != nil {
		return nil, err
	}

	updated, err := s.tasks.Assign(assigned.ID, *assigned.AssignedTo, assigned.AssignedBy)
	if err != nil {
		return nil, err
	}
	s.logger.Info("task assigned", "task_id", t.ID, "assigned_to", child.ID, "by", actor.ID)
	publish(s.pub, t.FamilyID, websocket.NewMessage("task", "assigned", t.ID, map[string]any{"assigned_to": child.ID}))
	return updated, nil
}

func (s *LedgerService) DeleteTask(actorID, taskID string) error {
	actor, err := s.member(actorID)
	if err != nil {
		return err
	}
	t, err := s.task(actor, taskID)
	if err != nil {
		return err
	}
	if !ledger.CanManage(*actor, t.FamilyID) {
		return ledger.ErrNotAuthorized
	}
	if err := s.tasks.Delete(t.ID); err != nil {
		return err
	}
	s.logger.Info("task deleted", "task_id", t.ID, "by", actor.ID)
	publish(s.pub, t.FamilyID, websocket.NewMessage("task", "deleted", t.ID, nil))
	return nil
}

// CompleteTask completes a task and credits its assignee. When another update
// to the assignee or the task commits first, the completion is recomputed
// from fresh records, up to maxCompleteRetries times.
func (s *LedgerService) CompleteTask(cmd ledger.CompleteTaskCommand) (*ledger.Completion, error) {
	if cmd.At.IsZero() {
		cmd.At = s.clock.Now()
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	at := cmd.At.In(s.clock.Location())

	attempt := 0
	c, err := retry.DoValue(context.Background(), completionBackoff(), func(ctx context.Context) (ledger.Completion, error) {
		attempt++
		c, version, err := s.computeCompletion(cmd.ActorID, cmd.TaskID, at)
		if err != nil {
			return ledger.Completion{}, err
		}
		if err := s.tasks.Complete(c, version); err != nil {
			if errors.Is(err, store.ErrStaleVersion) {
				s.logger.Debug("completion retry", "task_id", cmd.TaskID, "attempt", attempt)
				return ledger.Completion{}, retry.RetryableError(err)
			}
			return ledger.Completion{}, err
		}
		c.Assignee.Version = version + 1
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	s.announceCompletion(c)
	return &c, nil
}

func (s *LedgerService) computeCompletion(actorID, taskID string, at time.Time) (ledger.Completion, int64, error) {
	actor, err := s.member(actorID)
	if err != nil {
		return ledger.Completion{}, 0, err
	}
	t, err := s.task(actor, taskID)
	if err != nil {
		return ledger.Completion{}, 0, err
	}

	assignee := actor
	if t.AssignedTo != nil && *t.AssignedTo != actor.ID {
		if assignee, err = s.users.GetByID(*t.AssignedTo); err != nil {
			return ledger.Completion{}, 0, err
		}
		if assignee == nil {
			return ledger.Completion{}, 0, ledger.ErrNotAssigned
		}
	}

	c, err := ledger.CompleteTask(*actor, *assignee, *t, at)
	if err != nil {
		return ledger.Completion{}, 0, err
	}
	return c, assignee.Version, nil
}

func (s *LedgerService) announceCompletion(c ledger.Completion) {
	u := c.Assignee
	family := c.Task.FamilyID
	s.logger.Info("task completed",
		"task_id", c.Task.ID,
		"user_id", u.ID,
		"completed_by", *c.Task.CompletedBy,
		"points", c.PointsEarned,
		"wallet", u.WalletBalance,
		"experience", u.ExperiencePoints,
		"streak", u.Streak,
	)
	if c.LeveledUp() {
		s.logger.Info("level up", "user_id", u.ID, "from", c.PreviousLevel, "to", u.Level)
	}
	for _, b := range c.NewBadges {
		s.logger.Info("badge unlocked", "user_id", u.ID, "badge", b)
	}

	publish(s.pub, family, websocket.NewMessage("task", "completed", c.Task.ID, map[string]any{
		"user_id": u.ID,
		"points":  c.PointsEarned,
	}))
	publish(s.pub, family, websocket.NewMessage("user", "updated", u.ID, map[string]any{
		"wallet_balance":    u.WalletBalance,
		"experience_points": u.ExperiencePoints,
		"level":             u.Level,
		"leveled_up":        c.LeveledUp(),
		"streak":            u.Streak,
		"new_badges":        c.NewBadges,
	}))
}

// --- Rewards ---

func (s *LedgerService) ListRewards(actorID string, availableOnly bool) ([]model.Reward, error) {
	actor, err := s.member(actorID)
	if err != nil {
		return nil, err
	}
	return s.rewards.ListByFamily(actor.FamilyID, availableOnly)
}

func (s *LedgerService) GetReward(actorID, rewardID string) (*model.Reward, error) {
	actor, err := s.member(actorID)
	if err != nil {
		return nil, err
	}
	return s.reward(actor, rewardID)
}

func (s *LedgerService) CreateReward(cmd ledger.RewardCommand) (*model.Reward, error) {
	actor, err := s.member(cmd.ActorID)
	if err != nil {
		return nil, err
	}
	draft, err := ledger.NewReward(cmd, *actor)
	if err != nil {
		return nil, err
	}
	draft.CreatedAt = s.clock.Now()
	r, err := s.rewards.Create(draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info("reward created", "reward_id", r.ID, "family_id", r.FamilyID, "cost", r.Cost)
	publish(s.pub, r.FamilyID, websocket.NewMessage("reward", "created", r.ID, nil))
	return r, nil
}

func (s *LedgerService) UpdateReward(rewardID string, cmd ledger.RewardCommand) (*model.Reward, error) {
	actor, err := s.member(cmd.ActorID)
	if err != nil {
		return nil, err
	}
	existing, err := s.reward(actor, rewardID)
	if err != nil {
		return nil, err
	}
	edited, err := ledger.EditReward(cmd, *existing, *actor)
	if err != nil {
		return nil, err
	}
	r, err := s.rewards.Update(edited)
	if err != nil {
		return nil, err
	}
	publish(s.pub, r.FamilyID, websocket.NewMessage("reward", "updated", r.ID, nil))
	return r, nil
}

func (s *LedgerService) DeleteReward(actorID, rewardID string) error {
	actor, err := s.member(actorID)
	if err != nil {
		return err
	}
	r, err := s.reward(actor, rewardID)
	if err != nil {
		return err
	}
	if !ledger.CanManage(*actor, r.FamilyID) {
		return ledger.ErrNotAuthorized
	}
	if err := s.rewards.Delete(r.ID); err != nil {
		return err
	}
	publish(s.pub, r.FamilyID, websocket.NewMessage("reward", "deleted", r.ID, nil))
	return nil
}

// RedeemResult is a persisted redemption and the user's balance after it.
type RedeemResult struct {
	Redemption model.RewardRedemption `json:"redemption"`
	User       model.User             `json:"user"`
}

// RedeemReward spends points on a reward. The ledger check rejects obvious
// failures early; the store repeats it atomically against the live balance.
func (s *LedgerService) RedeemReward(cmd ledger.RedeemRewardCommand) (*RedeemResult, error) {
	if cmd.At.IsZero() {
		cmd.At = s.clock.Now()
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	u, err := s.member(cmd.ActorID)
	if err != nil {
		return nil, err
	}
	r, err := s.reward(u, cmd.RewardID)
	if err != nil {
		return nil, err
	}
	if _, err := ledger.RedeemReward(*u, *r); err != nil {
		return nil, err
	}

	red, err := s.rewards.Redeem(u.ID, r.ID, cmd.At)
	if err != nil {
		return nil, err
	}
	after, err := loadUser(s.users.GetByID, u.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user after redemption: %w", err)
	}

	s.logger.Info("reward redeemed",
		"reward_id", r.ID,
		"user_id", u.ID,
		"points_spent", red.PointsSpent,
		"wallet", after.WalletBalance,
	)
	publish(s.pub, u.FamilyID, websocket.NewMessage("reward", "redeemed", r.ID, map[string]any{
		"user_id":      u.ID,
		"points_spent": red.PointsSpent,
	}))
	publish(s.pub, u.FamilyID, websocket.NewMessage("user", "updated", u.ID, map[string]any{
		"wallet_balance":    after.WalletBalance,
		"experience_points": after.ExperiencePoints,
		"level":             after.Level,
	}))
	return &RedeemResult{Redemption: *red, User: *after}, nil
}

// --- Suggestions ---

func (s *LedgerService) SuggestTask(cmd ledger.SuggestTaskCommand) (*model.TaskSuggestion, error) {
	child, err := s.member(cmd.ActorID)
	if err != nil {
		return nil, err
	}
	cmd.Category = chore.CategoryOr(cmd.Category, cmd.Title)
	draft, err := ledger.SuggestTask(cmd, *child, s.clock.Now())
	if err != nil {
		return nil, err
	}
	sg, err := s.suggestions.Create(draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info("task suggested", "suggestion_id", sg.ID, "user_id", child.ID, "points", sg.SuggestedPoints)
	publish(s.pub, sg.FamilyID, websocket.NewMessage("suggestion", "created", sg.ID, nil))
	return sg, nil
}

// ListSuggestions returns the family's suggestions to a parent and only
// their own to a child.
func (s *LedgerService) ListSuggestions(actorID string, status model.SuggestionStatus) ([]model.TaskSuggestion, error) {
	actor, err := s.member(actorID)
	if err != nil {
		return nil, err
	}
	f := store.SuggestionFilter{Status: status}
	if !actor.IsParent() {
		f.SuggestedBy = actor.ID
	}
	return s.suggestions.ListByFamily(actor.FamilyID, f)
}

// ResolveSuggestion approves or rejects a pending suggestion. Approval and
// the resulting task commit together.
func (s *LedgerService) ResolveSuggestion(cmd ledger.ResolveSuggestionCommand) (*model.TaskSuggestion, *model.Task, error) {
	if cmd.At.IsZero() {
		cmd.At = s.clock.Now()
	}
	actor, err := s.member(cmd.ActorID)
	if err != nil {
		return nil, nil, err
	}
	sg, err := s.suggestions.GetByID(cmd.SuggestionID)
	if err != nil {
		return nil, nil, err
	}
	if sg == nil || sg.FamilyID != actor.FamilyID {
		return nil, nil, notFound("suggestion")
	}

	res, err := ledger.ResolveSuggestion(cmd, *sg, *actor)
	if err != nil {
		return nil, nil, err
	}
	resolved, task, err := s.suggestions.Resolve(res)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("suggestion resolved", "suggestion_id", resolved.ID, "status", resolved.Status, "by", actor.ID)
	publish(s.pub, resolved.FamilyID, websocket.NewMessage("suggestion", string(resolved.Status), resolved.ID, nil))
	if task != nil {
		publish(s.pub, task.FamilyID, websocket.NewMessage("task", "created", task.ID, map[string]any{"suggestion_id": resolved.ID}))
	}
	return resolved, task, nil
}

// --- Profile ---

// Profile is a user as shown on their own dashboard.
type Profile struct {
	User            model.User      `json:"user"`
	Progress        ledger.Progress `json:"progress"`
	EffectiveStreak int             `json:"effective_streak"`
}

func (s *LedgerService) Profile(userID string) (*Profile, error) {
	u, err := loadUser(s.users.GetByID, userID)
	if err != nil {
		return nil, err
	}
	today := ledger.CalendarDay(s.clock.Now())
	return &Profile{
		User:            *u,
		Progress:        ledger.ProgressFor(*u),
		EffectiveStreak: ledger.EffectiveStreak(u.Streak, u.LastCompletedOn, today),
	}, nil
}

func (s *LedgerService) Badges(userID string) ([]ledger.BadgeStatus, error) {
	u, err := loadUser(s.users.GetByID, userID)
	if err != nil {
		return nil, err
	}
	return ledger.Catalog(*u), nil
}

func (s *LedgerService) Redemptions(userID string) ([]model.RewardRedemption, error) {
	if _, err := loadUser(s.users.GetByID, userID); err != nil {
		return nil, err
	}
	return s.rewards.ListRedemptionsByUser(userID)
}
