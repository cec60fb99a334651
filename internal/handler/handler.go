// Package handler exposes the ledger over JSON HTTP. Handlers read the actor
// placed in the request context by middleware.RequireActor and pass it
// explicitly into every ledger call.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/ledger"
)

const maxBodyBytes = 1 << 16

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// actorFrom returns the request's actor or writes 401.
func actorFrom(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	a, ok := auth.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
	}
	return a, ok
}

// statusFor maps a ledger error kind to its HTTP status.
func statusFor(err error) int {
	switch ledger.KindOf(err) {
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindForbidden:
		return http.StatusForbidden
	case ledger.KindInvalidStateTransition, ledger.KindAlreadyRedeemed,
		ledger.KindChoreNotReady, ledger.KindDuplicateReference:
		return http.StatusConflict
	case ledger.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case ledger.KindInvalidAmount, ledger.KindInvalidInput, ledger.KindInvalidPIN:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError reports err with its ledger kind. Anything that is not a
// ledger error is logged and hidden behind a 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(action, "error", err)
		writeMessage(w, status, "failed to "+action)
		return
	}
	var le *ledger.Error
	errors.As(err, &le)
	writeJSON(w, status, map[string]string{"error": le.Error(), "kind": string(le.Kind)})
}
