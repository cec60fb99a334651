package ledger

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/notify"
	"github.com/dukerupert/kidbank/internal/store"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

func sharedFor(ctx context.Context, r repos, parentID int64) (*model.SharedWallet, error) {
	w, err := r.wallets.GetSharedByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, newError(KindNotFound, "shared wallet not found")
	}
	return w, nil
}

func childWalletFor(ctx context.Context, r repos, childID int64) (*model.ChildWallet, error) {
	w, err := r.wallets.GetChildWalletByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, newError(KindNotFound, "child wallet not found")
	}
	return w, nil
}

// GetSharedWallet returns the acting parent's family wallet.
func (s *Service) GetSharedWallet(ctx context.Context, actor auth.Actor) (*model.SharedWallet, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	return sharedFor(ctx, s.read(), actor.ID)
}

// GetChildWallet returns a child's wallet to the child or its parent.
func (s *Service) GetChildWallet(ctx context.Context, actor auth.Actor, childID int64) (*model.ChildWallet, error) {
	r := s.read()
	if _, err := childFor(ctx, r, actor, childID); err != nil {
		return nil, err
	}
	return childWalletFor(ctx, r, childID)
}

// FundSharedWallet credits the family wallet and records a paid funding
// entry in one unit.
func (s *Service) FundSharedWallet(ctx context.Context, actor auth.Actor, amount decimal.Decimal, description string) (*model.Transaction, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	if err := CheckAmount(amount); err != nil {
		return nil, err
	}
	if description == "" {
		description = "Wallet funding"
	}
	return s.fund(ctx, actor.ID, amount, "", description)
}

// RecordExternalFunding books a payment the parent settled outside the
// ledger, such as a bank transfer. A reference already on the ledger is
// rejected.
func (s *Service) RecordExternalFunding(ctx context.Context, actor auth.Actor, amount decimal.Decimal, reference, description string) (*model.Transaction, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	if err := CheckAmount(amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reference) == "" {
		return nil, newError(KindInvalidInput, "funding reference is required")
	}
	if description == "" {
		description = "External funding"
	}
	return s.fund(ctx, actor.ID, amount, strings.TrimSpace(reference), description)
}

func (s *Service) fund(ctx context.Context, parentID int64, amount decimal.Decimal, reference, description string) (*model.Transaction, error) {
	var paid *model.Transaction
	err := s.inTx(ctx, func(r repos) error {
		w, err := sharedFor(ctx, r, parentID)
		if err != nil {
			return err
		}
		rec, err := r.txs.Record(ctx, store.NewTransaction{
			Reference:   reference,
			ParentID:    parentID,
			Type:        model.TxFunding,
			Amount:      amount,
			Description: description,
		})
		if err != nil {
			return err
		}
		if err := r.wallets.Credit(ctx, w.ID, amount); err != nil {
			return err
		}
		paid, err = r.txs.MarkPaid(ctx, rec.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.funded(ctx, paid)
	return paid, nil
}

func (s *Service) funded(ctx context.Context, t *model.Transaction) {
	s.logger.Info("wallet funded", "parent_id", t.ParentID, "amount", money(t.Amount), "reference", t.Reference)
	s.emit(ctx, notify.Notice{
		RecipientID:   t.ParentID,
		RecipientRole: auth.RoleParent,
		ParentID:      t.ParentID,
		Type:          model.NotifWalletFunded,
		Title:         "Wallet funded",
		Message:       fmt.Sprintf("%s was added to the family wallet", money(t.Amount)),
		RelatedID:     t.ID,
	})
}

// BeginFunding books a pending funding entry for a payment that settles
// later through SettleFunding or CancelFunding.
func (s *Service) BeginFunding(ctx context.Context, actor auth.Actor, amount decimal.Decimal, reference string) (*model.Transaction, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	if err := CheckAmount(amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reference) == "" {
		return nil, newError(KindInvalidInput, "funding reference is required")
	}

	var t *model.Transaction
	err := s.inTx(ctx, func(r repos) error {
		if _, err := sharedFor(ctx, r, actor.ID); err != nil {
			return err
		}
		var err error
		t, err = r.txs.Record(ctx, store.NewTransaction{
			Reference:   reference,
			ParentID:    actor.ID,
			Type:        model.TxFunding,
			Amount:      amount,
			Description: "Card funding",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("funding started", "parent_id", actor.ID, "reference", reference)
	return t, nil
}

// SettleFunding credits a pending funding entry. Settling a reference that
// is already paid returns it unchanged.
func (s *Service) SettleFunding(ctx context.Context, reference string) (*model.Transaction, error) {
	var (
		t       *model.Transaction
		settled bool
	)
	err := s.inTx(ctx, func(r repos) error {
		cur, err := fundingByReference(ctx, r, reference)
		if err != nil {
			return err
		}
		switch cur.Status {
		case model.TxPaid:
			t = cur
			return nil
		case model.TxCancelled:
			return newError(KindInvalidStateTransition, "funding was cancelled")
		}

		w, err := sharedFor(ctx, r, cur.ParentID)
		if err != nil {
			return err
		}
		if err := r.wallets.Credit(ctx, w.ID, cur.Amount); err != nil {
			return err
		}
		if t, err = r.txs.MarkPaid(ctx, cur.ID); err != nil {
			return err
		}
		settled = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if settled {
		s.funded(ctx, t)
	}
	return t, nil
}

// CancelFunding abandons a pending funding entry.
func (s *Service) CancelFunding(ctx context.Context, reference string) (*model.Transaction, error) {
	var t *model.Transaction
	err := s.inTx(ctx, func(r repos) error {
		cur, err := fundingByReference(ctx, r, reference)
		if err != nil {
			return err
		}
		if cur.Status == model.TxCancelled {
			t = cur
			return nil
		}
		t, err = r.txs.MarkCancelled(ctx, cur.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("funding cancelled", "reference", reference)
	return t, nil
}

func fundingByReference(ctx context.Context, r repos, reference string) (*model.Transaction, error) {
	t, err := r.txs.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if t == nil || t.Type != model.TxFunding {
		return nil, newError(KindNotFound, "funding not found")
	}
	return t, nil
}

// CancelTransaction cancels one of the parent's pending entries.
func (s *Service) CancelTransaction(ctx context.Context, actor auth.Actor, txID int64) (*model.Transaction, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	var t *model.Transaction
	err := s.inTx(ctx, func(r repos) error {
		cur, err := r.txs.GetByID(ctx, txID)
		if err != nil {
			return err
		}
		if cur == nil {
			return newError(KindNotFound, "transaction not found")
		}
		if cur.ParentID != actor.ID {
			return newError(KindForbidden, "transaction belongs to another family")
		}
		t, err = r.txs.MarkCancelled(ctx, cur.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTransactions returns the family ledger for a parent, or the entries
// touching their own wallet for a child.
func (s *Service) ListTransactions(ctx context.Context, actor auth.Actor, f model.TransactionFilter) ([]model.Transaction, error) {
	r := s.read()
	if actor.IsParent() {
		return r.txs.List(ctx, actor.ID, f)
	}
	c, err := childFor(ctx, r, actor, actor.ID)
	if err != nil {
		return nil, err
	}
	f.ChildID = c.ID
	return r.txs.List(ctx, c.ParentID, f)
}

// SetPIN gates allowance payments behind a four digit PIN.
func (s *Service) SetPIN(ctx context.Context, actor auth.Actor, pin string) error {
	if err := requireParent(actor); err != nil {
		return err
	}
	if !pinPattern.MatchString(pin) {
		return newError(KindInvalidPIN, "pin must be exactly four digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	return s.inTx(ctx, func(r repos) error {
		w, err := sharedFor(ctx, r, actor.ID)
		if err != nil {
			return err
		}
		return r.wallets.SetPINHash(ctx, w.ID, string(hash))
	})
}

// ClearPIN removes the PIN after checking the current one.
func (s *Service) ClearPIN(ctx context.Context, actor auth.Actor, current string) error {
	if err := requireParent(actor); err != nil {
		return err
	}
	return s.inTx(ctx, func(r repos) error {
		w, err := sharedFor(ctx, r, actor.ID)
		if err != nil {
			return err
		}
		if err := checkPIN(w, current); err != nil {
			return err
		}
		return r.wallets.SetPINHash(ctx, w.ID, "")
	})
}

// VerifyPIN checks pin against the parent's wallet. A wallet without a PIN
// accepts anything.
func (s *Service) VerifyPIN(ctx context.Context, actor auth.Actor, pin string) error {
	if err := requireParent(actor); err != nil {
		return err
	}
	w, err := sharedFor(ctx, s.read(), actor.ID)
	if err != nil {
		return err
	}
	return checkPIN(w, pin)
}

func checkPIN(w *model.SharedWallet, pin string) error {
	if !w.HasPIN() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(w.PINHash), []byte(pin)); err != nil {
		return newError(KindInvalidPIN, "incorrect pin")
	}
	return nil
}

// PayAllowance moves amount from the family wallet to a child, split by the
// child's savings rate like a chore reward.
func (s *Service) PayAllowance(ctx context.Context, actor auth.Actor, childID int64, amount decimal.Decimal, pin, description string) (*model.Transaction, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	if err := CheckAmount(amount); err != nil {
		return nil, err
	}
	if description == "" {
		description = "Allowance"
	}

	var (
		paid     *model.Transaction
		achieved []model.Goal
	)
	err := s.inTx(ctx, func(r repos) error {
		if _, err := childFor(ctx, r, actor, childID); err != nil {
			return err
		}
		shared, err := sharedFor(ctx, r, actor.ID)
		if err != nil {
			return err
		}
		if err := checkPIN(shared, pin); err != nil {
			return err
		}
		if shared.Balance.LessThan(amount) {
			return newError(KindInsufficientFunds,
				fmt.Sprintf("shared balance %s is below %s", money(shared.Balance), money(amount)))
		}
		cw, err := childWalletFor(ctx, r, childID)
		if err != nil {
			return err
		}
		settings, err := r.settings.Get(ctx, actor.ID)
		if err != nil {
			return err
		}

		if err := r.wallets.Debit(ctx, shared.ID, amount); err != nil {
			return err
		}
		rate := cw.SavingsRate
		if !settings.AllowSavings {
			rate = 0
		}
		if _, _, err := r.wallets.CreditWithSplit(ctx, cw.ID, amount, rate); err != nil {
			return err
		}
		cid := childID
		rec, err := r.txs.Record(ctx, store.NewTransaction{
			ParentID:    actor.ID,
			ChildID:     &cid,
			Type:        model.TxAllowance,
			Amount:      amount,
			Description: description,
		})
		if err != nil {
			return err
		}
		if paid, err = r.txs.MarkPaid(ctx, rec.ID); err != nil {
			return err
		}
		achieved, err = s.evaluate(ctx, r, childID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("allowance paid", "parent_id", actor.ID, "child_id", childID, "amount", money(amount))
	s.emit(ctx, notify.Notice{
		RecipientID:   childID,
		RecipientRole: auth.RoleChild,
		ParentID:      actor.ID,
		Type:          model.NotifAllowancePaid,
		Title:         "Allowance paid",
		Message:       fmt.Sprintf("You received %s", money(amount)),
		RelatedID:     paid.ID,
	})
	s.emitAchieved(ctx, actor.ID, achieved)
	return paid, nil
}

// Spend records a child spending from their own spendable balance. Saved
// money is not spendable.
func (s *Service) Spend(ctx context.Context, actor auth.Actor, amount decimal.Decimal, description string) (*model.Transaction, error) {
	if !actor.IsChild() {
		return nil, newError(KindForbidden, "only a child may spend from their wallet")
	}
	if err := CheckAmount(amount); err != nil {
		return nil, err
	}
	if description == "" {
		description = "Spending"
	}

	var (
		paid     *model.Transaction
		parentID int64
	)
	err := s.inTx(ctx, func(r repos) error {
		c, err := childFor(ctx, r, actor, actor.ID)
		if err != nil {
			return err
		}
		parentID = c.ParentID
		cw, err := childWalletFor(ctx, r, c.ID)
		if err != nil {
			return err
		}
		if cw.Balance.LessThan(amount) {
			return newError(KindInsufficientFunds,
				fmt.Sprintf("balance %s is below %s", money(cw.Balance), money(amount)))
		}
		if err := r.wallets.DebitChild(ctx, cw.ID, amount); err != nil {
			return err
		}
		cid := c.ID
		rec, err := r.txs.Record(ctx, store.NewTransaction{
			ParentID:    c.ParentID,
			ChildID:     &cid,
			Type:        model.TxSpending,
			Amount:      amount,
			Description: description,
		})
		if err != nil {
			return err
		}
		paid, err = r.txs.MarkPaid(ctx, rec.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("child spent", "child_id", actor.ID, "amount", money(amount))
	s.emit(ctx, notify.Notice{
		RecipientID:   parentID,
		RecipientRole: auth.RoleParent,
		ParentID:      parentID,
		Type:          model.NotifChildSpent,
		Title:         "Money spent",
		Message:       fmt.Sprintf("%s spent on %s", money(amount), description),
		RelatedID:     paid.ID,
	})
	return paid, nil
}
