package chore

import (
	"time"

	"github.com/anirpro14/tidykitty/internal/ledger"
	"github.com/anirpro14/tidykitty/internal/model"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusDueToday  Status = "due_today"
	StatusNotDue    Status = "not_due"
)

type TaskWithStatus struct {
	model.Task
	Status       Status `json:"status"`
	AssigneeName string `json:"assignee_name,omitempty"`
}

// ComputeStatus derives a task's display status on today, which must be in the
// family's configured location. Due dates are calendar days.
func ComputeStatus(task model.Task, today time.Time) Status {
	if task.Completed {
		return StatusCompleted
	}
	if task.DueDate == nil {
		return StatusNotDue
	}

	day := ledger.CalendarDay(today)
	due := ledger.CalendarDay(*task.DueDate)
	switch {
	case due.Before(day):
		return StatusOverdue
	case due.Equal(day):
		return StatusDueToday
	default:
		return StatusPending
	}
}

// WithStatus annotates tasks for listing. names maps user ids to display names.
func WithStatus(tasks []model.Task, names map[string]string, today time.Time) []TaskWithStatus {
	out := make([]TaskWithStatus, 0, len(tasks))
	for _, t := range tasks {
		ts := TaskWithStatus{Task: t, Status: ComputeStatus(t, today)}
		if t.AssignedTo != nil {
			ts.AssigneeName = names[*t.AssignedTo]
		}
		out = append(out, ts)
	}
	return out
}

// IsActionable reports whether a task still needs doing today or earlier.
func IsActionable(s Status) bool {
	return s == StatusOverdue || s == StatusDueToday
}
