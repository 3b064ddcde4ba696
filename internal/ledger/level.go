package ledger

import (
	"math"

	"github.com/anirpro14/tidykitty/internal/model"
)

// PointsPerLevel scales the experience needed to clear a level: level L
// needs L*PointsPerLevel.
const PointsPerLevel = 300

// LevelSpan returns the experience needed to clear the given level.
func LevelSpan(level int) int {
	if level < 1 {
		level = 1
	}
	return level * PointsPerLevel
}

// LevelFloor returns the lifetime experience at which the given level starts.
func LevelFloor(level int) int {
	if level <= 1 {
		return 0
	}
	return PointsPerLevel * level * (level - 1) / 2
}

// DeriveLevel walks experience through the level spans, carrying the excess
// forward each time a span is cleared. It returns the level reached and the
// experience carried into it.
func DeriveLevel(experience int) (level, carried int) {
	level, carried = 1, experience
	if carried < 0 {
		carried = 0
	}
	for carried >= LevelSpan(level) {
		carried -= LevelSpan(level)
		level++
	}
	return level, carried
}

// ProgressPercent is the display percentage of a level bar:
// min(100, round(points / (level*300) * 100)).
func ProgressPercent(points, level int) int {
	if points <= 0 {
		return 0
	}
	pct := int(math.Round(float64(points) / float64(LevelSpan(level)) * 100))
	return min(pct, 100)
}

type Progress struct {
	Level      int `json:"level"`
	IntoLevel  int `json:"into_level"`
	LevelSpan  int `json:"level_span"`
	ToNext     int `json:"to_next"`
	Percentage int `json:"percentage"`
}

// ProgressFor reports a user's stored level and how far their experience has
// carried into it.
func ProgressFor(u model.User) Progress {
	level := max(u.Level, 1)
	into := max(u.ExperiencePoints-LevelFloor(level), 0)
	span := LevelSpan(level)
	return Progress{
		Level:      level,
		IntoLevel:  into,
		LevelSpan:  span,
		ToNext:     max(span-into, 0),
		Percentage: ProgressPercent(into, level),
	}
}
