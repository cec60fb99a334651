package ledger

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/notify"
	"github.com/dukerupert/kidbank/internal/store"
)

var hundred = decimal.NewFromInt(100)

// percentOf returns saved as a percentage of target, rounded to two places.
func percentOf(saved, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	return saved.Mul(hundred).Div(target).Round(2)
}

// trophyFor picks the tier from the percent of target saved at the moment
// the goal is achieved.
func trophyFor(saved, target decimal.Decimal) model.Trophy {
	pct := percentOf(saved, target)
	switch {
	case pct.GreaterThanOrEqual(hundred):
		return model.TrophyGold
	case pct.GreaterThanOrEqual(decimal.NewFromInt(75)):
		return model.TrophySilver
	default:
		return model.TrophyBronze
	}
}

// evaluate flips every active goal of the child whose contributions reach
// its target. Achieved goals are never revisited.
func (s *Service) evaluate(ctx context.Context, r repos, childID int64) ([]model.Goal, error) {
	goals, err := r.goals.ListActiveByChild(ctx, childID)
	if err != nil {
		return nil, err
	}

	var achieved []model.Goal
	now := s.now()
	for _, g := range goals {
		saved, err := r.goals.SumContributions(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		if saved.LessThan(g.TargetAmount) {
			continue
		}
		trophy := trophyFor(saved, g.TargetAmount)
		if err := r.goals.MarkAchieved(ctx, g.ID, trophy, now); err != nil {
			return nil, err
		}
		g.Status = model.GoalAchieved
		g.Trophy = trophy
		at := now
		g.AchievedAt = &at
		achieved = append(achieved, g)
	}
	return achieved, nil
}

// EvaluateGoals re-runs goal evaluation for a child and returns the goals it
// newly achieved.
func (s *Service) EvaluateGoals(ctx context.Context, actor auth.Actor, childID int64) ([]model.Goal, error) {
	var achieved []model.Goal
	var parentID int64
	err := s.inTx(ctx, func(r repos) error {
		c, err := childFor(ctx, r, actor, childID)
		if err != nil {
			return err
		}
		parentID = c.ParentID
		achieved, err = s.evaluate(ctx, r, childID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emitAchieved(ctx, parentID, achieved)
	return achieved, nil
}

func (s *Service) emitAchieved(ctx context.Context, parentID int64, achieved []model.Goal) {
	for _, g := range achieved {
		s.logger.Info("goal achieved", "goal_id", g.ID, "child_id", g.ChildID, "trophy", g.Trophy)
		msg := fmt.Sprintf("%s reached %s and earned a %s trophy", g.Title, money(g.TargetAmount), g.Trophy)
		s.emit(ctx,
			notify.Notice{
				RecipientID: g.ChildID, RecipientRole: auth.RoleChild, ParentID: parentID,
				Type: model.NotifGoalAchieved, Title: "Goal achieved", Message: msg, RelatedID: g.ID,
			},
			notify.Notice{
				RecipientID: parentID, RecipientRole: auth.RoleParent, ParentID: parentID,
				Type: model.NotifGoalAchieved, Title: "Goal achieved", Message: msg, RelatedID: g.ID,
			},
		)
	}
}

// GoalInput describes a new savings goal.
type GoalInput struct {
	ChildID              int64
	Title                string
	Description          string
	TargetAmount         decimal.Decimal
	TargetDurationMonths int
}

// CreateGoal starts a savings goal for a child. A child may create their own
// goals and a parent may create goals for their children.
func (s *Service) CreateGoal(ctx context.Context, actor auth.Actor, in GoalInput) (*model.Goal, error) {
	if err := CheckAmount(in.TargetAmount); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, newError(KindInvalidInput, "goal title is required")
	}
	months := in.TargetDurationMonths
	if months <= 0 {
		months = 1
	}

	var g *model.Goal
	err := s.inTx(ctx, func(r repos) error {
		if _, err := childFor(ctx, r, actor, in.ChildID); err != nil {
			return err
		}
		var err error
		g, err = r.goals.Create(ctx, in.ChildID, title, in.Description, in.TargetAmount, months)
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ContributeToGoal moves amount from the child's spendable balance into a
// goal, then evaluates the child's goals. All of it commits as one unit.
func (s *Service) ContributeToGoal(ctx context.Context, goalID int64, actor auth.Actor, amount decimal.Decimal) (*model.GoalContribution, error) {
	if err := CheckAmount(amount); err != nil {
		return nil, err
	}
	if _, _, err := checkContribute(ctx, s.read(), goalID, actor, amount); err != nil {
		return nil, err
	}

	var (
		gc       *model.GoalContribution
		goal     *model.Goal
		parentID int64
		achieved []model.Goal
	)
	err := s.inTx(ctx, func(r repos) error {
		g, w, err := checkContribute(ctx, r, goalID, actor, amount)
		if err != nil {
			return err
		}
		goal = g

		c, err := r.family.GetChild(ctx, g.ChildID)
		if err != nil {
			return err
		}
		parentID = c.ParentID

		if err := r.wallets.DebitChild(ctx, w.ID, amount); err != nil {
			return err
		}
		childID := g.ChildID
		rec, err := r.txs.Record(ctx, store.NewTransaction{
			ParentID:    parentID,
			ChildID:     &childID,
			Type:        model.TxContribution,
			Amount:      amount,
			Description: "Saved toward " + g.Title,
		})
		if err != nil {
			return err
		}
		if _, err := r.txs.MarkPaid(ctx, rec.ID); err != nil {
			return err
		}
		if gc, err = r.goals.AddContribution(ctx, g.ID, amount); err != nil {
			return err
		}

		achieved, err = s.evaluate(ctx, r, g.ChildID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("goal contribution", "goal_id", goal.ID, "child_id", goal.ChildID, "amount", money(amount))
	s.emit(ctx, notify.Notice{
		RecipientID:   parentID,
		RecipientRole: auth.RoleParent,
		ParentID:      parentID,
		Type:          model.NotifGoalContributed,
		Title:         "Saved toward a goal",
		Message:       fmt.Sprintf("%s was saved toward %s", money(amount), goal.Title),
		RelatedID:     goal.ID,
	})
	s.emitAchieved(ctx, parentID, achieved)
	return gc, nil
}

func checkContribute(ctx context.Context, r repos, goalID int64, actor auth.Actor, amount decimal.Decimal) (*model.Goal, *model.ChildWallet, error) {
	g, err := r.goals.GetByID(ctx, goalID)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, newError(KindNotFound, "goal not found")
	}
	if !actor.IsChild() || actor.ID != g.ChildID {
		return nil, nil, newError(KindForbidden, "only the goal's child may contribute")
	}
	if g.Status != model.GoalActive {
		return nil, nil, newError(KindInvalidStateTransition, "goal already achieved")
	}
	w, err := r.wallets.GetChildWalletByChild(ctx, g.ChildID)
	if err != nil {
		return nil, nil, err
	}
	if w == nil {
		return nil, nil, newError(KindNotFound, "child wallet not found")
	}
	if w.Balance.LessThan(amount) {
		return nil, nil, newError(KindInsufficientFunds,
			fmt.Sprintf("balance %s is below %s", money(w.Balance), money(amount)))
	}
	return g, w, nil
}

// ListGoals returns a child's goals with their progress.
func (s *Service) ListGoals(ctx context.Context, actor auth.Actor, childID int64) ([]model.GoalProgress, error) {
	r := s.read()
	if _, err := childFor(ctx, r, actor, childID); err != nil {
		return nil, err
	}
	goals, err := r.goals.ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}

	out := make([]model.GoalProgress, 0, len(goals))
	for _, g := range goals {
		saved, err := r.goals.SumContributions(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, s.progress(g, saved))
	}
	return out, nil
}

func (s *Service) progress(g model.Goal, saved decimal.Decimal) model.GoalProgress {
	pct := percentOf(saved, g.TargetAmount)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	deadline := g.CreatedAt.AddDate(0, g.TargetDurationMonths, 0)
	days := int(math.Ceil(deadline.Sub(s.now()).Hours() / 24))
	if days < 0 || g.Status == model.GoalAchieved {
		days = 0
	}
	return model.GoalProgress{Goal: g, Saved: saved, Percent: pct, DaysRemaining: days}
}

// GoalSummary totals a child's goals.
func (s *Service) GoalSummary(ctx context.Context, actor auth.Actor, childID int64) (*model.GoalSummary, error) {
	goals, err := s.ListGoals(ctx, actor, childID)
	if err != nil {
		return nil, err
	}
	sum := &model.GoalSummary{TotalSaved: decimal.Zero}
	for _, g := range goals {
		sum.TotalSaved = sum.TotalSaved.Add(g.Saved)
		if g.Status == model.GoalAchieved {
			sum.AchievedCount++
		} else {
			sum.ActiveCount++
		}
	}
	return sum, nil
}
