package model

import "time"

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

type TaskSuggestion struct {
	ID              string           `json:"id"`
	FamilyID        string           `json:"family_id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	SuggestedPoints int              `json:"suggested_points"`
	Category        string           `json:"category"`
	SuggestedBy     string           `json:"suggested_by"`
	Status          SuggestionStatus `json:"status"`
	ParentResponse  string           `json:"parent_response,omitempty"`
	ResolvedBy      *string          `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
	TaskID          *string          `json:"task_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
