package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/chore"
	"github.com/dukerupert/kidbank/internal/ledger"
	"github.com/dukerupert/kidbank/internal/model"
)

type ChoreHandler struct {
	ledger *ledger.Service
	logger *slog.Logger
}

func NewChoreHandler(l *ledger.Service, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{ledger: l, logger: logger}
}

type choreRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Reward      decimal.Decimal `json:"reward"`
	Category    string          `json:"category"`
	DueDate     time.Time       `json:"due_date"`
	AssignedTo  int64           `json:"assigned_to"`
}

// choreResponse adds the display status, which reads "redeemed" once paid.
type choreResponse struct {
	model.Chore
	DisplayStatus string `json:"display_status"`
}

func toChoreResponse(c model.Chore) choreResponse {
	return choreResponse{Chore: c, DisplayStatus: chore.DisplayStatus(c)}
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req choreRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.ledger.CreateChore(r.Context(), actor, ledger.ChoreInput{
		Title:       req.Title,
		Description: req.Description,
		Reward:      req.Reward,
		Category:    req.Category,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		writeError(w, h.logger, "create chore", err)
		return
	}
	writeJSON(w, http.StatusCreated, toChoreResponse(*c))
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	chores, err := h.ledger.ListChores(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, "list chores", err)
		return
	}
	out := make([]choreResponse, 0, len(chores))
	for _, c := range chores {
		out = append(out, toChoreResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.ledger.GetChore(r.Context(), actor, id)
	if err != nil {
		writeError(w, h.logger, "get chore", err)
		return
	}
	writeJSON(w, http.StatusOK, toChoreResponse(*c))
}

func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "complete chore", h.ledger.CompleteChore)
}

func (h *ChoreHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "approve chore", h.ledger.ApproveChore)
}

func (h *ChoreHandler) step(w http.ResponseWriter, r *http.Request, action string,
	fn func(ctx context.Context, id int64, a auth.Actor) (*model.Chore, error)) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := fn(r.Context(), id, actor)
	if err != nil {
		writeError(w, h.logger, action, err)
		return
	}
	writeJSON(w, http.StatusOK, toChoreResponse(*c))
}

func (h *ChoreHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	tx, err := h.ledger.RedeemChore(r.Context(), id, actor)
	if err != nil {
		writeError(w, h.logger, "redeem chore", err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
