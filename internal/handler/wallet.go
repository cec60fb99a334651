package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/ledger"
	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/payment"
)

// Checkouts opens hosted card payments.
type Checkouts interface {
	CreateFundingCheckout(ctx context.Context, parentID int64, amount decimal.Decimal) (*payment.Checkout, error)
}

type WalletHandler struct {
	ledger    *ledger.Service
	checkouts Checkouts
	logger    *slog.Logger
}

// NewWalletHandler builds the wallet routes. checkouts may be nil, in which
// case card funding answers 503.
func NewWalletHandler(l *ledger.Service, checkouts Checkouts, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{ledger: l, checkouts: checkouts, logger: logger}
}

// Get returns the family wallet to a parent and the child's own wallet to a
// child.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if actor.IsChild() {
		cw, err := h.ledger.GetChildWallet(r.Context(), actor, actor.ID)
		if err != nil {
			writeError(w, h.logger, "get wallet", err)
			return
		}
		writeJSON(w, http.StatusOK, cw)
		return
	}
	sw, err := h.ledger.GetSharedWallet(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, "get wallet", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         sw.ID,
		"parent_id":  sw.ParentID,
		"balance":    sw.Balance,
		"has_pin":    sw.HasPIN(),
		"updated_at": sw.UpdatedAt,
	})
}

func (h *WalletHandler) Fund(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	tx, err := h.ledger.FundSharedWallet(r.Context(), actor, req.Amount, req.Description)
	if err != nil {
		writeError(w, h.logger, "fund wallet", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

type externalFundingRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
}

// FundExternal books a payment settled outside the app, keyed by the
// caller's reference.
func (h *WalletHandler) FundExternal(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req externalFundingRequest
	if !decode(w, r, &req) {
		return
	}
	tx, err := h.ledger.RecordExternalFunding(r.Context(), actor, req.Amount, req.Reference, req.Description)
	if err != nil {
		writeError(w, h.logger, "record external funding", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// FundCheckout opens a card payment and books it as pending funding under
// the checkout session ID.
func (h *WalletHandler) FundCheckout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if h.checkouts == nil {
		writeMessage(w, http.StatusServiceUnavailable, "card funding is not configured")
		return
	}
	if !actor.IsParent() {
		writeMessage(w, http.StatusForbidden, "only a parent may fund the wallet")
		return
	}
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	if err := ledger.CheckAmount(req.Amount); err != nil {
		writeError(w, h.logger, "start checkout", err)
		return
	}

	co, err := h.checkouts.CreateFundingCheckout(r.Context(), actor.ID, req.Amount)
	if err != nil {
		h.logger.Error("create checkout", "parent_id", actor.ID, "error", err)
		writeMessage(w, http.StatusBadGateway, "failed to start checkout")
		return
	}
	tx, err := h.ledger.BeginFunding(r.Context(), actor, req.Amount, co.SessionID)
	if err != nil {
		writeError(w, h.logger, "begin funding", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"url": co.URL, "transaction": tx})
}

type pinRequest struct {
	PIN string `json:"pin"`
}

func (h *WalletHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req pinRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ledger.SetPIN(r.Context(), actor, req.PIN); err != nil {
		writeError(w, h.logger, "set pin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WalletHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req pinRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ledger.VerifyPIN(r.Context(), actor, req.PIN); err != nil {
		writeError(w, h.logger, "verify pin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WalletHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req pinRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ledger.ClearPIN(r.Context(), actor, req.PIN); err != nil {
		writeError(w, h.logger, "clear pin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type allowanceRequest struct {
	ChildID     int64           `json:"child_id"`
	Amount      decimal.Decimal `json:"amount"`
	PIN         string          `json:"pin"`
	Description string          `json:"description"`
}

func (h *WalletHandler) Allowance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req allowanceRequest
	if !decode(w, r, &req) {
		return
	}
	tx, err := h.ledger.PayAllowance(r.Context(), actor, req.ChildID, req.Amount, req.PIN, req.Description)
	if err != nil {
		writeError(w, h.logger, "pay allowance", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := model.TransactionFilter{
		Status: model.TransactionStatus(q.Get("status")),
		Type:   model.TransactionType(q.Get("type")),
	}
	if v := q.Get("child_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid child_id")
			return
		}
		f.ChildID = id
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	txs, err := h.ledger.ListTransactions(r.Context(), actor, f)
	if err != nil {
		writeError(w, h.logger, "list transactions", err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *WalletHandler) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	tx, err := h.ledger.CancelTransaction(r.Context(), actor, id)
	if err != nil {
		writeError(w, h.logger, "cancel transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *WalletHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stats, err := h.ledger.Dashboard(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, "load dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Earnings returns the earning meter for the child in the path.
func (h *WalletHandler) Earnings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	m, err := h.ledger.EarningMeter(r.Context(), actor, id)
	if err != nil {
		writeError(w, h.logger, "load earnings", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *WalletHandler) Spend(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	tx, err := h.ledger.Spend(r.Context(), actor, req.Amount, req.Description)
	if err != nil {
		writeError(w, h.logger, "spend", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}
