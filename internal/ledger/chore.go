package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/chore"
	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/notify"
	"github.com/dukerupert/kidbank/internal/store"
)

// ChoreInput describes a chore a parent assigns to one of their children.
type ChoreInput struct {
	Title       string
	Description string
	Reward      decimal.Decimal
	Category    string
	DueDate     time.Time
	AssignedTo  int64
}

func (s *Service) CreateChore(ctx context.Context, actor auth.Actor, in ChoreInput) (*model.Chore, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	if err := CheckAmount(in.Reward); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, newError(KindInvalidInput, "chore title is required")
	}
	if in.DueDate.IsZero() {
		return nil, newError(KindInvalidInput, "chore due date is required")
	}

	var c *model.Chore
	err := s.inTx(ctx, func(r repos) error {
		if _, err := childFor(ctx, r, actor, in.AssignedTo); err != nil {
			return err
		}
		var err error
		c, err = r.chores.Create(ctx, store.NewChore{
			Title:       title,
			Description: in.Description,
			Reward:      in.Reward,
			Category:    in.Category,
			DueDate:     in.DueDate,
			AssignedTo:  in.AssignedTo,
			ParentID:    actor.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, notify.Notice{
		RecipientID:   c.AssignedTo,
		RecipientRole: auth.RoleChild,
		ParentID:      c.ParentID,
		Type:          model.NotifChoreCreated,
		Title:         "New chore",
		Message:       fmt.Sprintf("%s is worth %s, due %s", c.Title, money(c.Reward), c.DueDate.Format("Jan 2")),
		RelatedID:     c.ID,
	})
	return c, nil
}

// GetChore returns a chore visible to the actor.
func (s *Service) GetChore(ctx context.Context, actor auth.Actor, choreID int64) (*model.Chore, error) {
	c, err := s.read().chores.GetByID(ctx, choreID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, newError(KindNotFound, "chore not found")
	}
	if !chore.IsOwner(*c, actor) && !chore.IsAssignee(*c, actor) {
		return nil, newError(KindForbidden, "chore belongs to another family")
	}
	return c, nil
}

// ListChores returns a parent's chores, or the chores assigned to a child.
func (s *Service) ListChores(ctx context.Context, actor auth.Actor) ([]model.Chore, error) {
	r := s.read()
	if actor.IsParent() {
		return r.chores.ListByParent(ctx, actor.ID)
	}
	return r.chores.ListByChild(ctx, actor.ID)
}

// CompleteChore marks a pending chore done. Only the assigned child may.
func (s *Service) CompleteChore(ctx context.Context, choreID int64, actor auth.Actor) (*model.Chore, error) {
	now := s.now()
	c, err := s.transition(ctx, choreID, func(c model.Chore) (model.Chore, error) {
		return chore.Complete(c, actor, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chore completed", "chore_id", c.ID, "child_id", c.AssignedTo)
	s.emit(ctx, notify.Notice{
		RecipientID:   c.ParentID,
		RecipientRole: auth.RoleParent,
		ParentID:      c.ParentID,
		Type:          model.NotifChoreCompleted,
		Title:         "Chore completed",
		Message:       fmt.Sprintf("%s was marked done", c.Title),
		RelatedID:     c.ID,
	})
	return c, nil
}

// ApproveChore confirms a completed chore. Only the owning parent may.
func (s *Service) ApproveChore(ctx context.Context, choreID int64, actor auth.Actor) (*model.Chore, error) {
	c, err := s.transition(ctx, choreID, func(c model.Chore) (model.Chore, error) {
		return chore.Approve(c, actor)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chore approved", "chore_id", c.ID, "parent_id", c.ParentID)
	s.emit(ctx, notify.Notice{
		RecipientID:   c.AssignedTo,
		RecipientRole: auth.RoleChild,
		ParentID:      c.ParentID,
		Type:          model.NotifChoreApproved,
		Title:         "Chore approved",
		Message:       fmt.Sprintf("%s was approved", c.Title),
		RelatedID:     c.ID,
	})
	return c, nil
}

// MarkMissed expires a pending or completed chore past its due date.
func (s *Service) MarkMissed(ctx context.Context, choreID int64) (*model.Chore, error) {
	now := s.now()
	c, err := s.transition(ctx, choreID, func(c model.Chore) (model.Chore, error) {
		return chore.Miss(c, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chore missed", "chore_id", c.ID)
	msg := fmt.Sprintf("%s was not finished by %s", c.Title, c.DueDate.Format("Jan 2"))
	s.emit(ctx,
		notify.Notice{
			RecipientID: c.AssignedTo, RecipientRole: auth.RoleChild, ParentID: c.ParentID,
			Type: model.NotifChoreMissed, Title: "Chore missed", Message: msg, RelatedID: c.ID,
		},
		notify.Notice{
			RecipientID: c.ParentID, RecipientRole: auth.RoleParent, ParentID: c.ParentID,
			Type: model.NotifChoreMissed, Title: "Chore missed", Message: msg, RelatedID: c.ID,
		},
	)
	return c, nil
}

// SweepMissed marks every overdue chore missed and reports how many changed.
// A chore that moved on concurrently is skipped.
func (s *Service) SweepMissed(ctx context.Context) (int, error) {
	overdue, err := s.read().chores.ListOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}

	n := 0
	for _, c := range overdue {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		_, err := s.MarkMissed(ctx, c.ID)
		if KindOf(err) == KindInvalidStateTransition || KindOf(err) == KindNotFound {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// transition loads a chore, applies step, and persists the result. step runs
// once before the transaction to fail fast and again inside it on the
// freshly read row.
func (s *Service) transition(ctx context.Context, choreID int64, step func(model.Chore) (model.Chore, error)) (*model.Chore, error) {
	current, err := s.read().chores.GetByID(ctx, choreID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, newError(KindNotFound, "chore not found")
	}
	if _, err := step(*current); err != nil {
		return nil, translate(err)
	}

	var out *model.Chore
	err = s.inTx(ctx, func(r repos) error {
		cur, err := r.chores.GetByID(ctx, choreID)
		if err != nil {
			return err
		}
		if cur == nil {
			return newError(KindNotFound, "chore not found")
		}
		next, err := step(*cur)
		if err != nil {
			return err
		}
		out, err = r.chores.UpdateStatus(ctx, cur.ID, cur.Status, next.Status, next.CompletedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
