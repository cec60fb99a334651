package auth

import (
	"context"
	"fmt"
	"strconv"
)

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// Actor is the acting principal. The ledger trusts it as given; credential
// checks happen upstream of this service.
type Actor struct {
	ID   int64
	Role Role
}

func Parent(id int64) Actor { return Actor{ID: id, Role: RoleParent} }

func Child(id int64) Actor { return Actor{ID: id, Role: RoleChild} }

func (a Actor) IsParent() bool { return a.Role == RoleParent }

func (a Actor) IsChild() bool { return a.Role == RoleChild }

func (a Actor) String() string {
	return string(a.Role) + ":" + strconv.FormatInt(a.ID, 10)
}

// ParseActor builds an Actor from an id and role pair as sent by the gateway.
func ParseActor(id, role string) (Actor, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return Actor{}, fmt.Errorf("invalid actor id %q", id)
	}
	switch Role(role) {
	case RoleParent, RoleChild:
	default:
		return Actor{}, fmt.Errorf("invalid actor role %q", role)
	}
	return Actor{ID: n, Role: Role(role)}, nil
}

type contextKey struct{}

// WithActor is used by the HTTP layer only; handlers read the actor back and
// pass it explicitly into the ledger.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}
