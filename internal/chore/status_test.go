package chore

import (
	"testing"
	"time"

	"github.com/anirpro14/tidykitty/internal/model"
)

func due(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestNoDueDate(t *testing.T) {
	task := model.Task{ID: "t1", Title: "Buy shelves"}
	today := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

	if status := ComputeStatus(task, today); status != StatusNotDue {
		t.Errorf("status = %q, want %q", status, StatusNotDue)
	}
}

func TestCompletedWinsOverDueDate(t *testing.T) {
	task := model.Task{ID: "t1", Completed: true, DueDate: due(2026, 1, 1)}
	today := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

	if status := ComputeStatus(task, today); status != StatusCompleted {
		t.Errorf("status = %q, want %q", status, StatusCompleted)
	}
}

func TestDueDates(t *testing.T) {
	today := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		due  *time.Time
		want Status
	}{
		{"yesterday", due(2026, 2, 4), StatusOverdue},
		{"today", due(2026, 2, 5), StatusDueToday},
		{"tomorrow", due(2026, 2, 6), StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := model.Task{ID: "t1", DueDate: tt.due}
			if status := ComputeStatus(task, today); status != tt.want {
				t.Errorf("status = %q, want %q", status, tt.want)
			}
		})
	}
}

func TestDueTodayInLocalZone(t *testing.T) {
	// 23:30 on the 5th in UTC-8 is already the 6th in UTC; the local date counts.
	tz := time.FixedZone("UTC-8", -8*60*60)
	today := time.Date(2026, 2, 5, 23, 30, 0, 0, tz)
	task := model.Task{ID: "t1", DueDate: due(2026, 2, 5)}

	if status := ComputeStatus(task, today); status != StatusDueToday {
		t.Errorf("status = %q, want %q", status, StatusDueToday)
	}
}

func TestWithStatus(t *testing.T) {
	kid := "child-1"
	tasks := []model.Task{
		{ID: "a", AssignedTo: &kid, DueDate: due(2026, 2, 1)},
		{ID: "b"},
	}
	today := time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC)

	got := WithStatus(tasks, map[string]string{kid: "Mia"}, today)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Status != StatusOverdue || got[0].AssigneeName != "Mia" {
		t.Errorf("got[0] = %q/%q, want overdue/Mia", got[0].Status, got[0].AssigneeName)
	}
	if got[1].Status != StatusNotDue || got[1].AssigneeName != "" {
		t.Errorf("got[1] = %q/%q, want not_due/empty", got[1].Status, got[1].AssigneeName)
	}
	if !IsActionable(got[0].Status) || IsActionable(got[1].Status) {
		t.Error("IsActionable mismatch")
	}
}
