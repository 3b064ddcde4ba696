package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/anirpro14/tidykitty/internal/model"
)

func ptr[T any](v T) *T { return &v }

var morning = time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)

func child(id string) model.User {
	return model.User{ID: id, Name: id, Role: model.RoleChild, FamilyID: "fam-1", Level: 1}
}

func parent(id string) model.User {
	return model.User{ID: id, Name: id, Role: model.RoleParent, FamilyID: "fam-1", Level: 1}
}

func openTask(points int, assignee string) model.Task {
	return model.Task{
		ID:         "task-1",
		FamilyID:   "fam-1",
		Title:      "Feed the cat",
		Points:     points,
		Difficulty: model.DifficultyEasy,
		AssignedTo: ptr(assignee),
		AssignedBy: "parent-1",
	}
}

func TestCompleteTaskCreditsPoints(t *testing.T) {
	u := child("child-1")
	u.WalletBalance = 45
	u.ExperiencePoints = 180
	u.Level = 2

	c, err := CompleteTask(u, u, openTask(10, "child-1"), morning)
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if c.Assignee.WalletBalance != 55 {
		t.Errorf("wallet = %d, want 55", c.Assignee.WalletBalance)
	}
	if c.Assignee.ExperiencePoints != 190 {
		t.Errorf("experience = %d, want 190", c.Assignee.ExperiencePoints)
	}
	if c.Assignee.Level != 2 {
		t.Errorf("level = %d, want 2", c.Assignee.Level)
	}
	if got := ProgressPercent(c.Assignee.WalletBalance, c.Assignee.Level); got != 9 {
		t.Errorf("progress = %d, want 9", got)
	}
	if !c.Task.Completed {
		t.Error("expected task completed")
	}
	if c.Task.CompletedAt == nil || !c.Task.CompletedAt.Equal(morning) {
		t.Errorf("completed_at = %v, want %v", c.Task.CompletedAt, morning)
	}
	if c.Task.CompletedBy == nil || *c.Task.CompletedBy != "child-1" {
		t.Errorf("completed_by = %v, want child-1", c.Task.CompletedBy)
	}
}

func TestCompleteTaskTwiceRejected(t *testing.T) {
	u := child("child-1")
	first, err := CompleteTask(u, u, openTask(10, "child-1"), morning)
	if err != nil {
		t.Fatalf("first completion: %v", err)
	}

	after := first.Assignee
	_, err = CompleteTask(after, after, first.Task, morning.Add(time.Minute))
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("err = %v, want ErrAlreadyCompleted", err)
	}
	if after.WalletBalance != 10 || after.ExperiencePoints != 10 {
		t.Errorf("counters changed by rejected call: wallet=%d xp=%d", after.WalletBalance, after.ExperiencePoints)
	}
}

func TestCompleteTaskAuthorization(t *testing.T) {
	owner := child("child-1")
	sibling := child("child-2")
	mom := parent("parent-1")
	outsider := parent("parent-9")
	outsider.FamilyID = "fam-2"

	tests := []struct {
		name    string
		actor   model.User
		task    model.Task
		wantErr error
	}{
		{"sibling cannot complete", sibling, openTask(5, "child-1"), ErrNotAssigned},
		{"other family parent", outsider, openTask(5, "child-1"), ErrNotAuthorized},
		{"unassigned task", owner, model.Task{FamilyID: "fam-1", Points: 5}, ErrNotAssigned},
		{"parent assisted", mom, openTask(5, "child-1"), nil},
		{"self", owner, openTask(5, "child-1"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := CompleteTask(tt.actor, owner, tt.task, morning)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Assignee.ID != "child-1" || c.Assignee.WalletBalance != 5 {
				t.Errorf("points credited to %s (%d), want child-1 (5)", c.Assignee.ID, c.Assignee.WalletBalance)
			}
			if *c.Task.CompletedBy != tt.actor.ID {
				t.Errorf("completed_by = %s, want %s", *c.Task.CompletedBy, tt.actor.ID)
			}
		})
	}
}

func TestCompleteTaskDoesNotAliasBadges(t *testing.T) {
	u := child("child-1")
	u.Badges = make([]string, 0, 8)
	_, err := CompleteTask(u, u, openTask(5, "child-1"), morning)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(u.Badges) != 0 {
		t.Errorf("input badges mutated: %v", u.Badges)
	}
}

func TestCompleteTaskLevelUp(t *testing.T) {
	u := child("child-1")
	u.ExperiencePoints = 290

	c, err := CompleteTask(u, u, openTask(20, "child-1"), morning)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.Assignee.Level != 2 {
		t.Errorf("level = %d, want 2", c.Assignee.Level)
	}
	if !c.LeveledUp() {
		t.Error("expected LeveledUp")
	}
	if c.Assignee.WalletBalance != 20 {
		t.Errorf("wallet = %d, want 20 (leveling does not spend)", c.Assignee.WalletBalance)
	}
}

func TestCompleteTaskUnlocksBadges(t *testing.T) {
	u := child("child-1")
	u.ExperiencePoints = 95
	u.Streak = 2
	yesterday := CalendarDay(morning.AddDate(0, 0, -1))
	u.LastCompletedOn = &yesterday

	early := time.Date(2026, 2, 5, 7, 30, 0, 0, time.UTC)
	c, err := CompleteTask(u, u, openTask(10, "child-1"), early)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	want := []string{BadgeFirstTask, BadgeStreak3, BadgePoints100, BadgeEarlyBird}
	if diff := cmp.Diff(want, c.NewBadges); diff != "" {
		t.Errorf("new badges mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, c.Assignee.Badges); diff != "" {
		t.Errorf("badges mismatch (-want +got):\n%s", diff)
	}
	if c.Assignee.Streak != 3 {
		t.Errorf("streak = %d, want 3", c.Assignee.Streak)
	}
}

func TestRedeemReward(t *testing.T) {
	reward := model.Reward{ID: "r1", FamilyID: "fam-1", Title: "Ice cream", Cost: 50, Available: true}

	t.Run("sufficient", func(t *testing.T) {
		u := child("child-1")
		u.WalletBalance = 75
		u.ExperiencePoints = 300
		r, err := RedeemReward(u, reward)
		if err != nil {
			t.Fatalf("redeem: %v", err)
		}
		if r.User.WalletBalance != 25 {
			t.Errorf("wallet = %d, want 25", r.User.WalletBalance)
		}
		if r.User.ExperiencePoints != 300 {
			t.Errorf("experience = %d, want 300", r.User.ExperiencePoints)
		}
		if r.PointsSpent != 50 {
			t.Errorf("points spent = %d, want 50", r.PointsSpent)
		}
	})

	t.Run("insufficient", func(t *testing.T) {
		u := child("child-1")
		u.WalletBalance = 20
		_, err := RedeemReward(u, reward)
		if !errors.Is(err, ErrInsufficientPoints) {
			t.Fatalf("err = %v, want ErrInsufficientPoints", err)
		}
		if u.WalletBalance != 20 {
			t.Errorf("wallet = %d, want 20", u.WalletBalance)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		u := child("child-1")
		u.WalletBalance = 100
		off := reward
		off.Available = false
		if _, err := RedeemReward(u, off); !errors.Is(err, ErrRewardUnavailable) {
			t.Fatalf("err = %v, want ErrRewardUnavailable", err)
		}
	})

	t.Run("other family", func(t *testing.T) {
		u := child("child-1")
		u.WalletBalance = 100
		u.FamilyID = "fam-2"
		if _, err := RedeemReward(u, reward); !errors.Is(err, ErrNotAuthorized) {
			t.Fatalf("err = %v, want ErrNotAuthorized", err)
		}
	})
}

func TestExperienceNeverDecreases(t *testing.T) {
	u := child("child-1")
	reward := model.Reward{ID: "r1", FamilyID: "fam-1", Cost: 15, Available: true}
	last := 0
	for i := 0; i < 20; i++ {
		if i%3 == 2 {
			r, err := RedeemReward(u, reward)
			if err == nil {
				u = r.User
			} else if !errors.Is(err, ErrInsufficientPoints) {
				t.Fatalf("redeem: %v", err)
			}
		} else {
			task := openTask(10, "child-1")
			c, err := CompleteTask(u, u, task, morning.AddDate(0, 0, i))
			if err != nil {
				t.Fatalf("complete: %v", err)
			}
			u = c.Assignee
		}
		if u.ExperiencePoints < last {
			t.Fatalf("experience dropped from %d to %d at step %d", last, u.ExperiencePoints, i)
		}
		if u.WalletBalance < 0 {
			t.Fatalf("wallet went negative at step %d", i)
		}
		last = u.ExperiencePoints
	}
}

func TestCreateTask(t *testing.T) {
	mom := parent("parent-1")
	kid := child("child-1")
	roster := []model.User{mom, kid}

	task, err := CreateTask(CreateTaskCommand{
		ActorID:    mom.ID,
		Title:      "  Make bed ",
		Points:     10,
		Difficulty: model.DifficultyMedium,
		Category:   "Bedroom",
		AssignedTo: ptr("child-1"),
		DueDate:    ptr(time.Date(2026, 2, 6, 18, 0, 0, 0, time.UTC)),
	}, mom, roster)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Title != "Make bed" {
		t.Errorf("title = %q, want %q", task.Title, "Make bed")
	}
	if task.Completed {
		t.Error("new task should not be completed")
	}
	if task.AssignedBy != mom.ID {
		t.Errorf("assigned_by = %q, want %q", task.AssignedBy, mom.ID)
	}
	if task.FamilyID != "fam-1" {
		t.Errorf("family_id = %q, want fam-1", task.FamilyID)
	}
	if want := time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC); !task.DueDate.Equal(want) {
		t.Errorf("due = %v, want %v", task.DueDate, want)
	}
}

func TestCreateTaskRejections(t *testing.T) {
	mom := parent("parent-1")
	kid := child("child-1")
	roster := []model.User{mom, kid}
	base := CreateTaskCommand{ActorID: mom.ID, Title: "Dishes", Points: 5}

	tests := []struct {
		name    string
		mutate  func(*CreateTaskCommand)
		creator model.User
		wantErr error
	}{
		{"empty title", func(c *CreateTaskCommand) { c.Title = "   " }, mom, ErrValidation},
		{"zero points", func(c *CreateTaskCommand) { c.Points = 0 }, mom, ErrValidation},
		{"bad difficulty", func(c *CreateTaskCommand) { c.Difficulty = "legendary" }, mom, ErrValidation},
		{"child creator", func(c *CreateTaskCommand) {}, kid, ErrNotAuthorized},
		{"assign to parent", func(c *CreateTaskCommand) { c.AssignedTo = ptr("parent-1") }, mom, ErrValidation},
		{"assign to stranger", func(c *CreateTaskCommand) { c.AssignedTo = ptr("nobody") }, mom, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := base
			tt.mutate(&cmd)
			_, err := CreateTask(cmd, tt.creator, roster)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateTaskUnassigned(t *testing.T) {
	mom := parent("parent-1")
	task, err := CreateTask(CreateTaskCommand{ActorID: mom.ID, Title: "Sweep", Points: 5, AssignedTo: ptr("")}, mom, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.AssignedTo != nil {
		t.Errorf("assigned_to = %v, want nil", *task.AssignedTo)
	}
	if task.Difficulty != model.DifficultyEasy {
		t.Errorf("difficulty = %q, want easy", task.Difficulty)
	}
}

func TestAssignTask(t *testing.T) {
	mom := parent("parent-1")
	kid := child("child-1")
	task := model.Task{ID: "t1", FamilyID: "fam-1", Title: "Sweep", Points: 5}

	got, err := AssignTask(task, mom, kid)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !got.IsAssignedTo("child-1") {
		t.Errorf("assigned_to = %v, want child-1", got.AssignedTo)
	}

	if _, err := AssignTask(task, kid, kid); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("child assigning: err = %v, want ErrNotAuthorized", err)
	}
	if _, err := AssignTask(task, mom, mom); !errors.Is(err, ErrValidation) {
		t.Errorf("assign to parent: err = %v, want ErrValidation", err)
	}
	done := task
	done.Completed = true
	if _, err := AssignTask(done, mom, kid); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("completed task: err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestResolveSuggestionApproveMaterializesTask(t *testing.T) {
	mom := parent("parent-1")
	s := model.TaskSuggestion{
		ID:              "sugg-1",
		FamilyID:        "fam-1",
		Title:           "Wipe the counters",
		SuggestedPoints: 15,
		Category:        "Kitchen",
		SuggestedBy:     "child-1",
		Status:          model.SuggestionPending,
	}
	res, err := ResolveSuggestion(ResolveSuggestionCommand{
		ActorID: mom.ID, SuggestionID: s.ID, Decision: Approve, At: morning,
	}, s, mom)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Suggestion.Status != model.SuggestionApproved {
		t.Errorf("status = %q, want approved", res.Suggestion.Status)
	}
	if res.Task == nil {
		t.Fatal("expected a task")
	}
	want := model.Task{
		FamilyID:     "fam-1",
		Title:        "Wipe the counters",
		Points:       15,
		Difficulty:   model.DifficultyMedium,
		Category:     "Kitchen",
		AssignedTo:   ptr("child-1"),
		AssignedBy:   "parent-1",
		SuggestionID: ptr("sugg-1"),
		CreatedAt:    morning,
	}
	if diff := cmp.Diff(want, *res.Task); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}

	_, err = ResolveSuggestion(ResolveSuggestionCommand{
		ActorID: mom.ID, SuggestionID: s.ID, Decision: Reject, At: morning,
	}, res.Suggestion, mom)
	if !errors.Is(err, ErrSuggestionResolved) || !errors.Is(err, ErrValidation) {
		t.Errorf("second resolution err = %v, want ErrSuggestionResolved", err)
	}
}

func TestResolveSuggestionReject(t *testing.T) {
	mom := parent("parent-1")
	s := model.TaskSuggestion{ID: "s", FamilyID: "fam-1", SuggestedBy: "child-1", SuggestedPoints: 5, Status: model.SuggestionPending}

	res, err := ResolveSuggestion(ResolveSuggestionCommand{
		ActorID: mom.ID, SuggestionID: "s", Decision: Reject, Reason: " Not now ", At: morning,
	}, s, mom)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if res.Task != nil {
		t.Error("rejection must not create a task")
	}
	if res.Suggestion.Status != model.SuggestionRejected {
		t.Errorf("status = %q, want rejected", res.Suggestion.Status)
	}
	if res.Suggestion.ParentResponse != "Not now" {
		t.Errorf("response = %q, want %q", res.Suggestion.ParentResponse, "Not now")
	}

	other := parent("parent-2")
	other.FamilyID = "fam-2"
	if _, err := ResolveSuggestion(ResolveSuggestionCommand{
		ActorID: other.ID, SuggestionID: "s", Decision: Approve, At: morning,
	}, s, other); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("other family err = %v, want ErrNotAuthorized", err)
	}
	if _, err := ResolveSuggestion(ResolveSuggestionCommand{
		ActorID: mom.ID, SuggestionID: "s", Decision: "maybe", At: morning,
	}, s, mom); !errors.Is(err, ErrValidation) {
		t.Errorf("bad decision err = %v, want ErrValidation", err)
	}
}

func TestSuggestTask(t *testing.T) {
	kid := child("child-1")
	s, err := SuggestTask(SuggestTaskCommand{ActorID: kid.ID, Title: "Water plants", SuggestedPoints: 10}, kid, morning)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if s.Status != model.SuggestionPending || s.SuggestedBy != kid.ID || s.FamilyID != "fam-1" {
		t.Errorf("unexpected suggestion: %+v", s)
	}

	if _, err := SuggestTask(SuggestTaskCommand{ActorID: "p", Title: "x", SuggestedPoints: 1}, parent("p"), morning); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("parent suggesting: err = %v, want ErrNotAuthorized", err)
	}
	if _, err := SuggestTask(SuggestTaskCommand{ActorID: kid.ID, Title: "x"}, kid, morning); !errors.Is(err, ErrValidation) {
		t.Errorf("zero points: err = %v, want ErrValidation", err)
	}
}

func TestNewAndEditReward(t *testing.T) {
	mom := parent("parent-1")
	r, err := NewReward(RewardCommand{ActorID: mom.ID, Title: "Movie night", Cost: 100, Available: true}, mom)
	if err != nil {
		t.Fatalf("new reward: %v", err)
	}
	if r.FamilyID != "fam-1" || r.Cost != 100 {
		t.Errorf("unexpected reward: %+v", r)
	}

	if _, err := NewReward(RewardCommand{ActorID: "c", Title: "x", Cost: 1}, child("c")); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("child creating reward: err = %v, want ErrNotAuthorized", err)
	}
	if _, err := NewReward(RewardCommand{ActorID: mom.ID, Title: "x", Cost: 0}, mom); !errors.Is(err, ErrValidation) {
		t.Errorf("zero cost: err = %v, want ErrValidation", err)
	}

	r.ID = "r1"
	foreign := r
	foreign.FamilyID = "fam-2"
	if _, err := EditReward(RewardCommand{ActorID: mom.ID, Title: "x", Cost: 5}, foreign, mom); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("edit foreign reward: err = %v, want ErrNotAuthorized", err)
	}
	edited, err := EditReward(RewardCommand{ActorID: mom.ID, Title: "Pizza", Cost: 80}, r, mom)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.ID != "r1" || edited.Title != "Pizza" || edited.Available {
		t.Errorf("unexpected edit: %+v", edited)
	}
}
