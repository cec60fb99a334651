package ledger

import (
	"context"
	"strings"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/model"
)

func requireParent(a auth.Actor) error {
	if !a.IsParent() {
		return newError(KindForbidden, "only a parent may do this")
	}
	return nil
}

// childFor loads a child the actor may see: the child itself, or its parent.
func childFor(ctx context.Context, r repos, a auth.Actor, childID int64) (*model.Child, error) {
	c, err := r.family.GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, newError(KindNotFound, "child not found")
	}
	switch {
	case a.IsParent() && a.ID == c.ParentID:
	case a.IsChild() && a.ID == c.ID:
	default:
		return nil, newError(KindForbidden, "child belongs to another family")
	}
	return c, nil
}

// CreateParent registers a parent together with its shared wallet and
// default reward settings.
func (s *Service) CreateParent(ctx context.Context, name, email string) (*model.Parent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(KindInvalidInput, "parent name is required")
	}

	var p *model.Parent
	err := s.inTx(ctx, func(r repos) error {
		var err error
		p, err = r.family.CreateParent(ctx, name, strings.TrimSpace(email))
		if err != nil {
			return err
		}
		if _, err := r.wallets.CreateShared(ctx, p.ID); err != nil {
			return err
		}
		return r.settings.Seed(ctx, p.ID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("parent created", "parent_id", p.ID)
	return p, nil
}

// AddChild registers a child of the acting parent along with its wallet.
func (s *Service) AddChild(ctx context.Context, actor auth.Actor, name string, savingsRate int) (*model.Child, *model.ChildWallet, error) {
	if err := requireParent(actor); err != nil {
		return nil, nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, newError(KindInvalidInput, "child name is required")
	}
	if savingsRate < 0 || savingsRate > 100 {
		return nil, nil, newError(KindInvalidAmount, "savings rate must be between 0 and 100")
	}

	var c *model.Child
	var w *model.ChildWallet
	err := s.inTx(ctx, func(r repos) error {
		p, err := r.family.GetParent(ctx, actor.ID)
		if err != nil {
			return err
		}
		if p == nil {
			return newError(KindNotFound, "parent not found")
		}
		c, err = r.family.CreateChild(ctx, p.ID, name)
		if err != nil {
			return err
		}
		w, err = r.wallets.CreateChildWallet(ctx, c.ID, savingsRate)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("child added", "parent_id", actor.ID, "child_id", c.ID)
	return c, w, nil
}

// ListChildren returns the acting parent's children.
func (s *Service) ListChildren(ctx context.Context, actor auth.Actor) ([]model.Child, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	return s.read().family.ListChildren(ctx, actor.ID)
}

// SetSavingsRate changes the share of future credits a child keeps as savings.
func (s *Service) SetSavingsRate(ctx context.Context, actor auth.Actor, childID int64, rate int) (*model.ChildWallet, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	if rate < 0 || rate > 100 {
		return nil, newError(KindInvalidAmount, "savings rate must be between 0 and 100")
	}

	var w *model.ChildWallet
	err := s.inTx(ctx, func(r repos) error {
		if _, err := childFor(ctx, r, actor, childID); err != nil {
			return err
		}
		cw, err := r.wallets.GetChildWalletByChild(ctx, childID)
		if err != nil {
			return err
		}
		if cw == nil {
			return newError(KindNotFound, "child wallet not found")
		}
		if err := r.wallets.SetSavingsRate(ctx, cw.ID, rate); err != nil {
			return err
		}
		w, err = r.wallets.GetChildWallet(ctx, cw.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) GetSettings(ctx context.Context, actor auth.Actor) (*model.RewardSettings, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	return s.read().settings.Get(ctx, actor.ID)
}

func (s *Service) UpdateSettings(ctx context.Context, actor auth.Actor, approvalRequired, allowSavings bool) (*model.RewardSettings, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	var rs *model.RewardSettings
	err := s.inTx(ctx, func(r repos) error {
		p, err := r.family.GetParent(ctx, actor.ID)
		if err != nil {
			return err
		}
		if p == nil {
			return newError(KindNotFound, "parent not found")
		}
		rs, err = r.settings.Update(ctx, p.ID, approvalRequired, allowSavings)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}
