package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/ledger"
	"github.com/dukerupert/kidbank/internal/model"
)

type GoalHandler struct {
	ledger *ledger.Service
	logger *slog.Logger
}

func NewGoalHandler(l *ledger.Service, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{ledger: l, logger: logger}
}

// childParam resolves the child a goal request is about. Children default
// to themselves; parents must name one.
func childParam(w http.ResponseWriter, actor auth.Actor, raw string) (int64, bool) {
	if raw == "" {
		if actor.IsChild() {
			return actor.ID, true
		}
		writeMessage(w, http.StatusBadRequest, "child_id is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid child_id")
		return 0, false
	}
	return id, true
}

type goalRequest struct {
	ChildID              int64           `json:"child_id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	TargetAmount         decimal.Decimal `json:"target_amount"`
	TargetDurationMonths int             `json:"target_duration_months"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ChildID == 0 {
		if !actor.IsChild() {
			writeMessage(w, http.StatusBadRequest, "child_id is required")
			return
		}
		req.ChildID = actor.ID
	}

	g, err := h.ledger.CreateGoal(r.Context(), actor, ledger.GoalInput{
		ChildID:              req.ChildID,
		Title:                req.Title,
		Description:          req.Description,
		TargetAmount:         req.TargetAmount,
		TargetDurationMonths: req.TargetDurationMonths,
	})
	if err != nil {
		writeError(w, h.logger, "create goal", err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	childID, ok := childParam(w, actor, r.URL.Query().Get("child_id"))
	if !ok {
		return
	}
	goals, err := h.ledger.ListGoals(r.Context(), actor, childID)
	if err != nil {
		writeError(w, h.logger, "list goals", err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	childID, ok := childParam(w, actor, r.URL.Query().Get("child_id"))
	if !ok {
		return
	}
	sum, err := h.ledger.GoalSummary(r.Context(), actor, childID)
	if err != nil {
		writeError(w, h.logger, "summarize goals", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Evaluate re-checks a child's active goals and returns those newly achieved.
func (h *GoalHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	childID, ok := childParam(w, actor, r.URL.Query().Get("child_id"))
	if !ok {
		return
	}
	achieved, err := h.ledger.EvaluateGoals(r.Context(), actor, childID)
	if err != nil {
		writeError(w, h.logger, "evaluate goals", err)
		return
	}
	if achieved == nil {
		achieved = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, achieved)
}

type amountRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (h *GoalHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	gc, err := h.ledger.ContributeToGoal(r.Context(), id, actor, req.Amount)
	if err != nil {
		writeError(w, h.logger, "contribute to goal", err)
		return
	}
	writeJSON(w, http.StatusCreated, gc)
}
