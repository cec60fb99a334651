// Package notify delivers ledger notices to external collaborators after the
// ledger change that caused them has committed. Delivery is best effort.
package notify

import (
	"context"

	"github.com/dukerupert/kidbank/internal/auth"
)

// Notice is one message for one recipient. ParentID identifies the family
// the notice belongs to.
type Notice struct {
	RecipientID   int64
	RecipientRole auth.Role
	ParentID      int64
	Type          string
	Title         string
	Message       string
	RelatedID     int64
}

// Emitter accepts notices without blocking the caller and without reporting
// delivery failures.
type Emitter interface {
	Notify(ctx context.Context, n Notice)
}

// Sink is one delivery channel. A failing sink does not affect the others.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n Notice) error
}

// Nop discards every notice.
type Nop struct{}

func (Nop) Notify(context.Context, Notice) {}
