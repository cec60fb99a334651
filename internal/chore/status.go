// Package chore holds the chore lifecycle rules. It has no storage; callers
// load a chore, ask for the next state, then persist it.
package chore

import (
	"errors"
	"time"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/model"
)

var (
	ErrInvalidTransition = errors.New("invalid chore transition")
	ErrForbidden         = errors.New("actor may not act on this chore")
	ErrNotReady          = errors.New("chore not ready for redemption")
	ErrAlreadyRedeemed   = errors.New("chore already redeemed")
)

// DisplayStatus is the lifecycle state shown to users. A redeemed chore is
// reported as "redeemed" regardless of its stored status.
func DisplayStatus(c model.Chore) string {
	if c.IsRedeemed {
		return "redeemed"
	}
	return string(c.Status)
}

// IsOwner reports whether the actor is the parent who owns the chore.
func IsOwner(c model.Chore, a auth.Actor) bool {
	return a.IsParent() && a.ID == c.ParentID
}

// IsAssignee reports whether the actor is the child the chore is assigned to.
func IsAssignee(c model.Chore, a auth.Actor) bool {
	return a.IsChild() && a.ID == c.AssignedTo
}

// Complete moves a pending chore to completed. Only the assigned child may do it.
func Complete(c model.Chore, a auth.Actor, now time.Time) (model.Chore, error) {
	if !IsAssignee(c, a) {
		return c, ErrForbidden
	}
	if c.Status != model.ChorePending || c.IsRedeemed {
		return c, ErrInvalidTransition
	}
	c.Status = model.ChoreCompleted
	t := now
	c.CompletedAt = &t
	return c, nil
}

// Approve moves a completed chore to approved. Only the owning parent may do it.
func Approve(c model.Chore, a auth.Actor) (model.Chore, error) {
	if !IsOwner(c, a) {
		return c, ErrForbidden
	}
	if c.Status != model.ChoreCompleted || c.IsRedeemed {
		return c, ErrInvalidTransition
	}
	c.Status = model.ChoreApproved
	c.CompletedAt = nil
	return c, nil
}

// Miss moves a pending or completed chore to missed once its due date has
// passed. Redeemed chores never become missed.
func Miss(c model.Chore, now time.Time) (model.Chore, error) {
	if c.IsRedeemed {
		return c, ErrInvalidTransition
	}
	if c.Status != model.ChorePending && c.Status != model.ChoreCompleted {
		return c, ErrInvalidTransition
	}
	if !now.After(c.DueDate) {
		return c, ErrInvalidTransition
	}
	c.Status = model.ChoreMissed
	c.CompletedAt = nil
	return c, nil
}

// CheckRedeemable runs the redemption preconditions that depend on the chore
// alone, in order: actor, status, redeemed flag. When approvalRequired is
// set only approved chores qualify.
func CheckRedeemable(c model.Chore, a auth.Actor, approvalRequired bool) error {
	if !IsOwner(c, a) && !IsAssignee(c, a) {
		return ErrForbidden
	}
	switch c.Status {
	case model.ChoreApproved:
	case model.ChoreCompleted:
		if approvalRequired {
			return ErrNotReady
		}
	default:
		return ErrNotReady
	}
	if c.IsRedeemed {
		return ErrAlreadyRedeemed
	}
	return nil
}
