package handler

import (
	"log/slog"
	"net/http"

	"github.com/anirpro14/tidykitty/internal/auth"
	"github.com/anirpro14/tidykitty/internal/ledger"
	"github.com/anirpro14/tidykitty/internal/model"
	"github.com/anirpro14/tidykitty/internal/service"
)

type SuggestionHandler struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

func NewSuggestionHandler(ls *service.LedgerService, logger *slog.Logger) *SuggestionHandler {
	return &SuggestionHandler{ledger: ls, logger: logger}
}

func (h *SuggestionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.SuggestionStatus(r.URL.Query().Get("status"))
	switch status {
	case "", model.SuggestionPending, model.SuggestionApproved, model.SuggestionRejected:
	default:
		writeMessage(w, http.StatusBadRequest, "status must be pending, approved or rejected")
		return
	}

	list, err := h.ledger.ListSuggestions(auth.UserID(r.Context()), status)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if list == nil {
		list = []model.TaskSuggestion{}
	}
	writeJSON(w, http.StatusOK, list)
}

type suggestionRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	SuggestedPoints int    `json:"suggested_points"`
	Category        string `json:"category"`
}

func (h *SuggestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req suggestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sg, err := h.ledger.SuggestTask(ledger.SuggestTaskCommand{
		ActorID:         auth.UserID(r.Context()),
		Title:           req.Title,
		Description:     req.Description,
		SuggestedPoints: req.SuggestedPoints,
		Category:        req.Category,
	})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sg)
}

type resolveRequest struct {
	Decision ledger.Decision `json:"decision"`
	Reason   string          `json:"reason"`
}

type resolveResponse struct {
	Suggestion *model.TaskSuggestion `json:"suggestion"`
	Task       *model.Task           `json:"task,omitempty"`
}

func (h *SuggestionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sg, task, err := h.ledger.ResolveSuggestion(ledger.ResolveSuggestionCommand{
		ActorID:      auth.UserID(r.Context()),
		SuggestionID: r.PathValue("id"),
		Decision:     req.Decision,
		Reason:       req.Reason,
	})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Suggestion: sg, Task: task})
}
