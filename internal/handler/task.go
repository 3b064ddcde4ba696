package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/anirpro14/tidykitty/internal/auth"
	"github.com/anirpro14/tidykitty/internal/chore"
	"github.com/anirpro14/tidykitty/internal/ledger"
	"github.com/anirpro14/tidykitty/internal/model"
	"github.com/anirpro14/tidykitty/internal/service"
	"github.com/anirpro14/tidykitty/internal/store"
)

type TaskHandler struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

func NewTaskHandler(ls *service.LedgerService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{ledger: ls, logger: logger}
}

type taskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Points      int              `json:"points"`
	Difficulty  model.Difficulty `json:"difficulty"`
	Category    string           `json:"category"`
	AssignedTo  *string          `json:"assigned_to"`
	DueDate     *string          `json:"due_date"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.TaskFilter{AssignedTo: q.Get("assigned_to")}
	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "completed must be true or false")
			return
		}
		f.Completed = &completed
	}

	tasks, err := h.ledger.ListTasks(auth.UserID(r.Context()), f)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if tasks == nil {
		tasks = []chore.TaskWithStatus{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	t, err := h.ledger.CreateTask(ledger.CreateTaskCommand{
		ActorID:     auth.UserID(r.Context()),
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		Difficulty:  req.Difficulty,
		Category:    req.Category,
		AssignedTo:  req.AssignedTo,
		DueDate:     due,
	})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.ledger.GetTask(auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type assignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.ledger.AssignTask(auth.UserID(r.Context()), r.PathValue("id"), req.AssignedTo)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteTask(auth.UserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completionResponse struct {
	Task          model.Task `json:"task"`
	User          model.User `json:"user"`
	PointsEarned  int        `json:"points_earned"`
	NewBadges     []string   `json:"new_badges"`
	LeveledUp     bool       `json:"leveled_up"`
	PreviousLevel int        `json:"previous_level"`
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	c, err := h.ledger.CompleteTask(ledger.CompleteTaskCommand{
		ActorID: auth.UserID(r.Context()),
		TaskID:  r.PathValue("id"),
	})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	badges := c.NewBadges
	if badges == nil {
		badges = []string{}
	}
	writeJSON(w, http.StatusOK, completionResponse{
		Task:          c.Task,
		User:          c.Assignee,
		PointsEarned:  c.PointsEarned,
		NewBadges:     badges,
		LeveledUp:     c.LeveledUp(),
		PreviousLevel: c.PreviousLevel,
	})
}
