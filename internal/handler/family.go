package handler

import (
	"log/slog"
	"net/http"

	"github.com/anirpro14/tidykitty/internal/auth"
	"github.com/anirpro14/tidykitty/internal/service"
)

type FamilyHandler struct {
	families *service.FamilyService
	logger   *slog.Logger
}

func NewFamilyHandler(fs *service.FamilyService, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{families: fs, logger: logger}
}

type familyRequest struct {
	Name string `json:"name"`
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.families.CreateFamily(req.Name, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

type joinRequest struct {
	InviteCode string `json:"invite_code"`
}

func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.families.JoinFamily(req.InviteCode, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.families.GetFamily(auth.FamilyID(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FamilyHandler) AddChild(w http.ResponseWriter, r *http.Request) {
	var req service.AddChildInput
	if !decodeJSON(w, r, &req) {
		return
	}
	child, err := h.families.AddChild(auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

func (h *FamilyHandler) RotateInviteCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.families.RotateInviteCode(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"invite_code": code})
}

func (h *FamilyHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.families.Leaderboard(auth.FamilyID(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *FamilyHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.families.RenameFamily(auth.UserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FamilyHandler) RemoveChild(w http.ResponseWriter, r *http.Request) {
	if err := h.families.RemoveChild(auth.UserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateProfile serves PUT /api/me.
func (h *FamilyHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.families.UpdateProfile(auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
