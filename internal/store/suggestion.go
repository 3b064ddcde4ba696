package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/anirpro14/tidykitty/internal/ledger"
	"github.com/anirpro14/tidykitty/internal/model"
)

type SuggestionStore struct {
	db *sql.DB
}

func NewSuggestionStore(db *sql.DB) *SuggestionStore {
	return &SuggestionStore{db: db}
}

func scanSuggestion(scanner interface{ Scan(...any) error }) (*model.TaskSuggestion, error) {
	var s model.TaskSuggestion
	var resolvedBy, taskID sql.NullString
	var resolvedAt sql.NullTime

	err := scanner.Scan(
		&s.ID, &s.FamilyID, &s.Title, &s.Description, &s.SuggestedPoints, &s.Category,
		&s.SuggestedBy, &s.Status, &s.ParentResponse, &resolvedBy, &resolvedAt, &taskID, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.ResolvedBy = stringPtr(resolvedBy)
	s.ResolvedAt = timePtr(resolvedAt)
	s.TaskID = stringPtr(taskID)
	return &s, nil
}

const suggestionCols = `id, family_id, title, description, suggested_points, category,
	suggested_by, status, parent_response, resolved_by, resolved_at, task_id, created_at`

func (s *SuggestionStore) Create(sg model.TaskSuggestion) (*model.TaskSuggestion, error) {
	id := newID()
	_, err := s.db.Exec(
		`INSERT INTO task_suggestions (id, family_id, title, description, suggested_points, category, suggested_by, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sg.FamilyID, sg.Title, sg.Description, sg.SuggestedPoints, sg.Category,
		sg.SuggestedBy, model.SuggestionPending, nowUTC(sg.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert suggestion: %w", err)
	}
	return s.GetByID(id)
}

func (s *SuggestionStore) GetByID(id string) (*model.TaskSuggestion, error) {
	return getSuggestion(s.db, id)
}

func getSuggestion(q querier, id string) (*model.TaskSuggestion, error) {
	row := q.QueryRow(`SELECT `+suggestionCols+` FROM task_suggestions WHERE id = ?`, id)
	sg, err := scanSuggestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestion: %w", err)
	}
	return sg, nil
}

// SuggestionFilter narrows ListByFamily. Zero values match everything.
type SuggestionFilter struct {
	Status      model.SuggestionStatus
	SuggestedBy string
}

// ListByFamily returns suggestions newest first.
func (s *SuggestionStore) ListByFamily(familyID string, f SuggestionFilter) ([]model.TaskSuggestion, error) {
	where := []string{"family_id = ?"}
	args := []any{familyID}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.SuggestedBy != "" {
		where = append(where, "suggested_by = ?")
		args = append(args, f.SuggestedBy)
	}

	rows, err := s.db.Query(
		`SELECT `+suggestionCols+` FROM task_suggestions WHERE `+strings.Join(where, " AND ")+
			` ORDER BY created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []model.TaskSuggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		suggestions = append(suggestions, *sg)
	}
	return suggestions, rows.Err()
}

// Resolve persists a ledger resolution. The approved task, if any, is
// inserted in the same transaction as the status change, and the change only
// applies to a suggestion that is still pending.
func (s *SuggestionStore) Resolve(r ledger.Resolution) (*model.TaskSuggestion, *model.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var taskID sql.NullString
	if r.Task != nil {
		id, err := createTask(tx, *r.Task)
		if err != nil {
			return nil, nil, err
		}
		taskID = sql.NullString{String: id, Valid: true}
	}

	sg := r.Suggestion
	result, err := tx.Exec(
		`UPDATE task_suggestions SET status = ?, parent_response = ?, resolved_by = ?, resolved_at = ?, task_id = ?
		 WHERE id = ? AND status = 'pending'`,
		sg.Status, sg.ParentResponse, nullString(sg.ResolvedBy), nullTime(sg.ResolvedAt), taskID, sg.ID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve suggestion: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, nil, ledger.ErrSuggestionResolved
	}

	resolved, err := getSuggestion(tx, sg.ID)
	if err != nil {
		return nil, nil, err
	}
	var task *model.Task
	if taskID.Valid {
		if task, err = getTask(tx, taskID.String); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit resolution: %w", err)
	}
	return resolved, task, nil
}
