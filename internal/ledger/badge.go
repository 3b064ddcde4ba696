package ledger

import (
	"time"

	"github.com/anirpro14/tidykitty/internal/model"
)

const (
	BadgeFirstTask = "first-task"
	BadgeStreak3   = "streak-3"
	BadgeStreak7   = "streak-7"
	BadgePoints100 = "points-100"
	BadgePoints500 = "points-500"
	BadgeLevel5    = "level-5"
	BadgeEarlyBird = "early-bird"
)

// earlyBirdHour is the local hour before which a completion counts as early.
const earlyBirdHour = 9

// Stats are the counters badge rules are evaluated against.
type Stats struct {
	ExperiencePoints int
	Streak           int
	Level            int
	TasksCompleted   int
	// LastCompletedAt is the latest completion in the family's local time.
	LastCompletedAt *time.Time
}

func StatsFor(u model.User) Stats {
	return Stats{
		ExperiencePoints: u.ExperiencePoints,
		Streak:           u.Streak,
		Level:            u.Level,
		TasksCompleted:   u.TasksCompleted,
	}
}

type Badge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	// progress reports 0..100 toward the badge; nil for one-shot badges.
	progress func(Stats) int
	earned   func(Stats) bool
}

func badge(id, title, description, icon string, counter func(Stats) int, target int) Badge {
	return Badge{
		ID:          id,
		Title:       title,
		Description: description,
		Icon:        icon,
		progress:    func(s Stats) int { return min(100, counter(s)*100/target) },
		earned:      func(s Stats) bool { return counter(s) >= target },
	}
}

var (
	byTasks  = func(s Stats) int { return s.TasksCompleted }
	byStreak = func(s Stats) int { return s.Streak }
	byXP     = func(s Stats) int { return s.ExperiencePoints }
	byLevel  = func(s Stats) int { return s.Level }
)

// Badges is the fixed badge table, in display order.
var Badges = []Badge{
	badge(BadgeFirstTask, "Getting Started", "Complete your first task", "🎯", byTasks, 1),
	badge(BadgeStreak3, "On a Roll", "Complete tasks for 3 days in a row", "🔥", byStreak, 3),
	badge(BadgeStreak7, "Week Warrior", "Complete tasks for 7 days in a row", "⚡", byStreak, 7),
	badge(BadgePoints100, "Century Club", "Earn 100 total points", "💯", byXP, 100),
	badge(BadgePoints500, "Point Master", "Earn 500 total points", "🏆", byXP, 500),
	badge(BadgeLevel5, "Rising Star", "Reach level 5", "⭐", byLevel, 5),
	{
		ID:          BadgeEarlyBird,
		Title:       "Early Bird",
		Description: "Complete a task before 9 AM",
		Icon:        "🌅",
		earned: func(s Stats) bool {
			return s.LastCompletedAt != nil && s.LastCompletedAt.Hour() < earlyBirdHour
		},
	},
}

// EvaluateBadges returns the badges stats now qualify for that are not
// already in unlocked. It never returns a held badge and never revokes one.
func EvaluateBadges(stats Stats, unlocked []string) []string {
	held := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		held[id] = true
	}
	var fresh []string
	for _, b := range Badges {
		if held[b.ID] || !b.earned(stats) {
			continue
		}
		held[b.ID] = true
		fresh = append(fresh, b.ID)
	}
	return fresh
}

type BadgeStatus struct {
	Badge
	Unlocked bool `json:"unlocked"`
	Progress int  `json:"progress"`
}

// Catalog reports every badge for u. Held badges always show as unlocked at
// 100%, even when the counter that earned them has since dropped.
func Catalog(u model.User) []BadgeStatus {
	stats := StatsFor(u)
	out := make([]BadgeStatus, 0, len(Badges))
	for _, b := range Badges {
		st := BadgeStatus{Badge: b, Unlocked: u.HasBadge(b.ID)}
		switch {
		case st.Unlocked:
			st.Progress = 100
		case b.progress != nil:
			st.Progress = b.progress(stats)
		}
		out = append(out, st)
	}
	return out
}
