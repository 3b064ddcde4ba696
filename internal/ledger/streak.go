package ledger

import "time"

// CalendarDay maps t to UTC midnight of its calendar date in t's own location.
// Dates produced this way compare and subtract by whole days.
func CalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(CalendarDay(to).Sub(CalendarDay(from)).Hours() / 24)
}

// NextStreak advances a streak for a completion on day. A second completion
// on the same day leaves it alone, the next consecutive day extends it, and
// any gap restarts it at 1.
func NextStreak(streak int, lastOn *time.Time, day time.Time) int {
	if lastOn == nil || streak <= 0 {
		return 1
	}
	switch d := daysBetween(*lastOn, day); {
	case d <= 0:
		return streak
	case d == 1:
		return streak + 1
	default:
		return 1
	}
}

// EffectiveStreak is the streak as it should be displayed on today: a streak
// whose last completion is older than yesterday has lapsed.
func EffectiveStreak(streak int, lastOn *time.Time, today time.Time) int {
	if lastOn == nil {
		return 0
	}
	if daysBetween(*lastOn, today) > 1 {
		return 0
	}
	return streak
}
