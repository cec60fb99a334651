package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/kidbank/internal/ledger"
	"github.com/dukerupert/kidbank/internal/model"
)

type FamilyHandler struct {
	ledger *ledger.Service
	logger *slog.Logger
}

func NewFamilyHandler(l *ledger.Service, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{ledger: l, logger: logger}
}

type parentRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateParent registers a family. The gateway provisions the identity; this
// sets up the parent's ledger.
func (h *FamilyHandler) CreateParent(w http.ResponseWriter, r *http.Request) {
	var req parentRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.ledger.CreateParent(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, h.logger, "create parent", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type childRequest struct {
	Name        string `json:"name"`
	SavingsRate int    `json:"savings_rate"`
}

func (h *FamilyHandler) AddChild(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req childRequest
	if !decode(w, r, &req) {
		return
	}
	c, wallet, err := h.ledger.AddChild(r.Context(), actor, req.Name, req.SavingsRate)
	if err != nil {
		writeError(w, h.logger, "add child", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"child": c, "wallet": wallet})
}

func (h *FamilyHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	children, err := h.ledger.ListChildren(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, "list children", err)
		return
	}
	if children == nil {
		children = []model.Child{}
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *FamilyHandler) SetSavingsRate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		SavingsRate int `json:"savings_rate"`
	}
	if !decode(w, r, &req) {
		return
	}
	wallet, err := h.ledger.SetSavingsRate(r.Context(), actor, id, req.SavingsRate)
	if err != nil {
		writeError(w, h.logger, "set savings rate", err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *FamilyHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	rs, err := h.ledger.GetSettings(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *FamilyHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		ApprovalRequired bool `json:"approval_required"`
		AllowSavings     bool `json:"allow_savings"`
	}
	if !decode(w, r, &req) {
		return
	}
	rs, err := h.ledger.UpdateSettings(r.Context(), actor, req.ApprovalRequired, req.AllowSavings)
	if err != nil {
		writeError(w, h.logger, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}
