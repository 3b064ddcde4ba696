package handler

import (
	"log/slog"
	"net/http"

	"github.com/anirpro14/tidykitty/internal/auth"
	"github.com/anirpro14/tidykitty/internal/model"
	"github.com/anirpro14/tidykitty/internal/service"
)

// SessionHandler serves registration, login and the signed-in user's pages.
type SessionHandler struct {
	sessions *service.SessionService
	ledger   *service.LedgerService
	logger   *slog.Logger
}

func NewSessionHandler(ss *service.SessionService, ls *service.LedgerService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: ss, ledger: ls, logger: logger}
}

func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	u, sess, err := h.sessions.Register(req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	setSessionCookie(w, r, sess)
	writeJSON(w, http.StatusCreated, sessionResponse{User: u, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

type loginRequest struct {
	UserID string `json:"user_id"`
	PIN    string `json:"pin"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeMessage(w, http.StatusBadRequest, "user_id is required")
		return
	}
	u, sess, err := h.sessions.Login(req.UserID, req.PIN)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	setSessionCookie(w, r, sess)
	writeJSON(w, http.StatusOK, sessionResponse{User: u, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := h.sessions.Logout(ac.SessionID); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledger.Profile(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type pinRequest struct {
	PIN string `json:"pin"`
}

func (h *SessionHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, sess, err := h.sessions.SetPIN(auth.UserID(r.Context()), req.PIN)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	setSessionCookie(w, r, sess)
	writeJSON(w, http.StatusOK, sessionResponse{User: u, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

func (h *SessionHandler) Badges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.ledger.Badges(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

func (h *SessionHandler) Redemptions(w http.ResponseWriter, r *http.Request) {
	list, err := h.ledger.Redemptions(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if list == nil {
		list = []model.RewardRedemption{}
	}
	writeJSON(w, http.StatusOK, list)
}
