package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anirpro14/tidykitty/internal/ledger"
	"github.com/anirpro14/tidykitty/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var assignedTo, assignedBy, completedBy, dueDate, suggestionID sql.NullString
	var completed int
	var completedAt sql.NullTime

	err := scanner.Scan(
		&t.ID, &t.FamilyID, &t.Title, &t.Description, &t.Points, &t.Difficulty, &t.Category,
		&assignedTo, &assignedBy, &completed, &completedBy, &completedAt, &dueDate,
		&suggestionID, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.AssignedTo = stringPtr(assignedTo)
	t.AssignedBy = assignedBy.String
	t.Completed = completed != 0
	t.CompletedBy = stringPtr(completedBy)
	t.CompletedAt = timePtr(completedAt)
	t.SuggestionID = stringPtr(suggestionID)
	t.DueDate, err = parseDate(dueDate)
	if err != nil {
		return nil, fmt.Errorf("parse due_date: %w", err)
	}
	return &t, nil
}

const taskCols = `id, family_id, title, description, points, difficulty, category,
	assigned_to, assigned_by, completed, completed_by, completed_at, due_date,
	suggestion_id, created_at`

func (s *TaskStore) Create(t model.Task) (*model.Task, error) {
	id, err := createTask(s.db, t)
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func createTask(q querier, t model.Task) (string, error) {
	id := newID()
	_, err := q.Exec(
		`INSERT INTO tasks (id, family_id, title, description, points, difficulty, category,
		 assigned_to, assigned_by, due_date, suggestion_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.FamilyID, t.Title, t.Description, t.Points, t.Difficulty, t.Category,
		nullString(t.AssignedTo), nullText(t.AssignedBy), nullDate(t.DueDate),
		nullString(t.SuggestionID), nowUTC(t.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

func (s *TaskStore) GetByID(id string) (*model.Task, error) {
	return getTask(s.db, id)
}

func getTask(q querier, id string) (*model.Task, error) {
	row := q.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// TaskFilter narrows ListByFamily. Zero values match everything.
type TaskFilter struct {
	AssignedTo string
	Completed  *bool
}

// ListByFamily returns the family's tasks, open tasks first, each group
// oldest first.
func (s *TaskStore) ListByFamily(familyID string, f TaskFilter) ([]model.Task, error) {
	var where []string
	args := []any{familyID}
	where = append(where, "family_id = ?")
	if f.AssignedTo != "" {
		where = append(where, "assigned_to = ?")
		args = append(args, f.AssignedTo)
	}
	if f.Completed != nil {
		where = append(where, "completed = ?")
		args = append(args, boolInt(*f.Completed))
	}

	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE `+strings.Join(where, " AND ")+
			` ORDER BY completed ASC, created_at ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Assign changes the assignee of an open task.
func (s *TaskStore) Assign(id, assignedTo, assignedBy string) (*model.Task, error) {
	result, err := s.db.Exec(
		`UPDATE tasks SET assigned_to = ?, assigned_by = ? WHERE id = ? AND completed = 0`,
		assignedTo, assignedBy, id,
	)
	if err != nil {
		return nil, fmt.Errorf("assign task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ledger.ErrAlreadyCompleted
	}
	return s.GetByID(id)
}

func (s *TaskStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Complete persists a ledger completion in one transaction. The task must
// still be open (else ledger.ErrAlreadyCompleted), still assigned to the
// credited user and the assignee row must still carry version (else
// ErrStaleVersion).
func (s *TaskStore) Complete(c ledger.Completion, version int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	t := c.Task
	result, err := tx.Exec(
		`UPDATE tasks SET completed = 1, completed_by = ?, completed_at = ?
		 WHERE id = ? AND completed = 0 AND assigned_to = ?`,
		nullString(t.CompletedBy), nullTime(t.CompletedAt), t.ID, c.Assignee.ID,
	)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return completionConflict(tx, t.ID)
	}

	if err := applyUserCounters(tx, c.Assignee, version); err != nil {
		return err
	}

	at := time.Now().UTC()
	if t.CompletedAt != nil {
		at = t.CompletedAt.UTC()
	}
	for _, badge := range c.NewBadges {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO user_badges (user_id, badge_id, unlocked_at) VALUES (?, ?, ?)`,
			c.Assignee.ID, badge, at,
		); err != nil {
			return fmt.Errorf("insert badge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit completion: %w", err)
	}
	return nil
}

// completionConflict explains why the conditional task update matched no
// row. An open task that matched nothing was reassigned after the
// completion was computed.
func completionConflict(q querier, id string) error {
	var completed bool
	err := q.QueryRow(`SELECT completed FROM tasks WHERE id = ?`, id).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reload task: %w", err)
	}
	if completed {
		return ledger.ErrAlreadyCompleted
	}
	return ErrStaleVersion
}

func applyUserCounters(q querier, u model.User, version int64) error {
	result, err := q.Exec(
		`UPDATE users SET wallet_balance = ?, experience_points = ?, level = ?, streak = ?,
		 last_completed_on = ?, tasks_completed = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		u.WalletBalance, u.ExperiencePoints, u.Level, u.Streak,
		nullDate(u.LastCompletedOn), u.TasksCompleted, time.Now().UTC(),
		u.ID, version,
	)
	if err != nil {
		return fmt.Errorf("update user counters: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrStaleVersion
	}
	return nil
}
