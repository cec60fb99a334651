package ledger

import (
	"errors"

	"github.com/dukerupert/kidbank/internal/chore"
	"github.com/dukerupert/kidbank/internal/store"
)

// Kind is the machine-readable class of a ledger error.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindForbidden              Kind = "forbidden"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindChoreNotReady          Kind = "chore_not_ready"
	KindAlreadyRedeemed        Kind = "already_redeemed"
	KindInsufficientFunds      Kind = "insufficient_funds"
	KindInvalidAmount          Kind = "invalid_amount"
	KindInvalidInput           Kind = "invalid_input"
	KindDuplicateReference     Kind = "duplicate_reference"
	KindInvalidPIN             Kind = "invalid_pin"
)

// Error is returned by every Service operation that fails a business rule.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrChoreNotReady          = &Error{Kind: KindChoreNotReady}
	ErrAlreadyRedeemed        = &Error{Kind: KindAlreadyRedeemed}
	ErrInsufficientFunds      = &Error{Kind: KindInsufficientFunds}
	ErrInvalidAmount          = &Error{Kind: KindInvalidAmount}
	ErrInvalidInput           = &Error{Kind: KindInvalidInput}
	ErrDuplicateReference     = &Error{Kind: KindDuplicateReference}
	ErrInvalidPIN             = &Error{Kind: KindInvalidPIN}
)

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of a ledger error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// translate maps store and state machine errors onto ledger kinds. Errors
// that are already ledger errors, and infrastructure errors, pass through.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return wrap(KindNotFound, "not found", err)
	case errors.Is(err, store.ErrInsufficientFunds):
		return wrap(KindInsufficientFunds, "insufficient funds", err)
	case errors.Is(err, store.ErrInvalidAmount):
		return wrap(KindInvalidAmount, "invalid amount", err)
	case errors.Is(err, store.ErrBalanceLimit):
		return wrap(KindInvalidAmount, "wallet balance limit reached", err)
	case errors.Is(err, store.ErrDuplicateReference):
		return wrap(KindDuplicateReference, "duplicate transaction reference", err)
	case errors.Is(err, store.ErrNotPending), errors.Is(err, store.ErrStaleStatus), errors.Is(err, store.ErrGoalNotActive):
		return wrap(KindInvalidStateTransition, "state does not permit this change", err)
	case errors.Is(err, store.ErrAlreadyRedeemed), errors.Is(err, chore.ErrAlreadyRedeemed):
		return wrap(KindAlreadyRedeemed, "chore reward already paid", err)
	case errors.Is(err, chore.ErrInvalidTransition):
		return wrap(KindInvalidStateTransition, "invalid chore transition", err)
	case errors.Is(err, chore.ErrForbidden):
		return wrap(KindForbidden, "actor may not act on this chore", err)
	case errors.Is(err, chore.ErrNotReady):
		return wrap(KindChoreNotReady, "chore is not ready for redemption", err)
	}
	return err
}
