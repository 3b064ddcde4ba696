package handler

import (
	"log/slog"
	"net/http"

	"github.com/anirpro14/tidykitty/internal/auth"
	"github.com/anirpro14/tidykitty/internal/ledger"
	"github.com/anirpro14/tidykitty/internal/model"
	"github.com/anirpro14/tidykitty/internal/service"
)

type RewardHandler struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

func NewRewardHandler(ls *service.LedgerService, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{ledger: ls, logger: logger}
}

type rewardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Available   *bool  `json:"available"`
}

func (req rewardRequest) command(actorID string, available bool) ledger.RewardCommand {
	if req.Available != nil {
		available = *req.Available
	}
	return ledger.RewardCommand{
		ActorID:     actorID,
		Title:       req.Title,
		Description: req.Description,
		Cost:        req.Cost,
		Category:    req.Category,
		Image:       req.Image,
		Available:   available,
	}
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	availableOnly := r.URL.Query().Get("available") == "true"
	rewards, err := h.ledger.ListRewards(auth.UserID(r.Context()), availableOnly)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reward, err := h.ledger.CreateReward(req.command(auth.UserID(r.Context()), true))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

// Update replaces a reward. An omitted "available" keeps the current value.
func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actorID := auth.UserID(r.Context())
	id := r.PathValue("id")

	existing, err := h.ledger.GetReward(actorID, id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	reward, err := h.ledger.UpdateReward(id, req.command(actorID, existing.Available))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteReward(auth.UserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	res, err := h.ledger.RedeemReward(ledger.RedeemRewardCommand{
		ActorID:  auth.UserID(r.Context()),
		RewardID: r.PathValue("id"),
	})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
