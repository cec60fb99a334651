package ledger

import (
	"context"
	"fmt"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/chore"
	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/notify"
	"github.com/dukerupert/kidbank/internal/store"
)

// redemption is the checked state a redemption acts on.
type redemption struct {
	chore    *model.Chore
	settings *model.RewardSettings
	shared   *model.SharedWallet
	child    *model.ChildWallet
}

// checkRedeem runs the redemption preconditions in order: existence and
// actor, status, redeemed flag, shared balance.
func checkRedeem(ctx context.Context, r repos, choreID int64, actor auth.Actor) (*redemption, error) {
	c, err := r.chores.GetByID(ctx, choreID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, newError(KindNotFound, "chore not found")
	}
	settings, err := r.settings.Get(ctx, c.ParentID)
	if err != nil {
		return nil, err
	}
	if err := chore.CheckRedeemable(*c, actor, settings.ApprovalRequired); err != nil {
		return nil, translate(err)
	}

	shared, err := r.wallets.GetSharedByParent(ctx, c.ParentID)
	if err != nil {
		return nil, err
	}
	if shared == nil {
		return nil, newError(KindNotFound, "shared wallet not found")
	}
	if shared.Balance.LessThan(c.Reward) {
		return nil, newError(KindInsufficientFunds,
			fmt.Sprintf("shared balance %s is below reward %s", money(shared.Balance), money(c.Reward)))
	}

	child, err := r.wallets.GetChildWalletByChild(ctx, c.AssignedTo)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, newError(KindNotFound, "child wallet not found")
	}
	return &redemption{chore: c, settings: settings, shared: shared, child: child}, nil
}

// RedeemChore pays a chore's reward from the shared wallet into the assigned
// child's wallet, split by the child's savings rate. Debit, credit, ledger
// entry, redeemed flag and goal evaluation commit together or not at all.
func (s *Service) RedeemChore(ctx context.Context, choreID int64, actor auth.Actor) (*model.Transaction, error) {
	if _, err := checkRedeem(ctx, s.read(), choreID, actor); err != nil {
		return nil, err
	}

	var (
		paid     *model.Transaction
		c        *model.Chore
		achieved []model.Goal
	)
	err := s.inTx(ctx, func(r repos) error {
		rd, err := checkRedeem(ctx, r, choreID, actor)
		if err != nil {
			return err
		}
		c = rd.chore

		if err := r.chores.MarkRedeemed(ctx, c.ID); err != nil {
			return err
		}
		if err := r.wallets.Debit(ctx, rd.shared.ID, c.Reward); err != nil {
			return err
		}
		rate := rd.child.SavingsRate
		if !rd.settings.AllowSavings {
			rate = 0
		}
		if _, _, err := r.wallets.CreditWithSplit(ctx, rd.child.ID, c.Reward, rate); err != nil {
			return err
		}

		childID, cid := c.AssignedTo, c.ID
		rec, err := r.txs.Record(ctx, store.NewTransaction{
			ParentID:    c.ParentID,
			ChildID:     &childID,
			ChoreID:     &cid,
			Type:        model.TxReward,
			Amount:      c.Reward,
			Description: "Reward for " + c.Title,
		})
		if err != nil {
			return err
		}
		if paid, err = r.txs.MarkPaid(ctx, rec.ID); err != nil {
			return err
		}

		achieved, err = s.evaluate(ctx, r, c.AssignedTo)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chore redeemed", "chore_id", c.ID, "child_id", c.AssignedTo,
		"amount", money(c.Reward), "transaction_id", paid.ID)
	s.emit(ctx, notify.Notice{
		RecipientID:   c.AssignedTo,
		RecipientRole: auth.RoleChild,
		ParentID:      c.ParentID,
		Type:          model.NotifRewardPaid,
		Title:         "Reward paid",
		Message:       fmt.Sprintf("You earned %s for %s", money(c.Reward), c.Title),
		RelatedID:     paid.ID,
	}, notify.Notice{
		RecipientID:   c.ParentID,
		RecipientRole: auth.RoleParent,
		ParentID:      c.ParentID,
		Type:          model.NotifRewardPaid,
		Title:         "Reward paid",
		Message:       fmt.Sprintf("%s paid from the family wallet for %s", money(c.Reward), c.Title),
		RelatedID:     paid.ID,
	})
	s.emitAchieved(ctx, c.ParentID, achieved)
	return paid, nil
}
