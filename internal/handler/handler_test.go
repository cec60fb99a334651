package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/kidbank/internal/ledger"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind ledger.Kind
		want int
	}{
		{ledger.KindNotFound, http.StatusNotFound},
		{ledger.KindForbidden, http.StatusForbidden},
		{ledger.KindInvalidStateTransition, http.StatusConflict},
		{ledger.KindAlreadyRedeemed, http.StatusConflict},
		{ledger.KindChoreNotReady, http.StatusConflict},
		{ledger.KindDuplicateReference, http.StatusConflict},
		{ledger.KindInsufficientFunds, http.StatusUnprocessableEntity},
		{ledger.KindInvalidAmount, http.StatusBadRequest},
		{ledger.KindInvalidInput, http.StatusBadRequest},
		{ledger.KindInvalidPIN, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &ledger.Error{Kind: tt.kind, Message: "x"})
			if got := statusFor(err); got != tt.want {
				t.Errorf("statusFor(%s) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}

	if got := statusFor(errors.New("disk full")); got != http.StatusInternalServerError {
		t.Errorf("statusFor(plain) = %d, want %d", got, http.StatusInternalServerError)
	}
}

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rec := httptest.NewRecorder()
	writeError(rec, logger, "redeem chore", &ledger.Error{Kind: ledger.KindInsufficientFunds, Message: "shared wallet balance too low"})
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["kind"] != "insufficient_funds" {
		t.Errorf("kind = %q, want %q", body["kind"], "insufficient_funds")
	}

	rec = httptest.NewRecorder()
	writeError(rec, logger, "redeem chore", errors.New("database is locked"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	body = nil
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != "failed to redeem chore" {
		t.Errorf("error = %q, want internal detail hidden", body["error"])
	}
}
