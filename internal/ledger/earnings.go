package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/model"
)

const (
	meterDays          = 7
	meterRecentRewards = 5
)

// EarningMeter returns a child's earnings view: wallet totals, money in and
// out for each of the last seven UTC days (today included, oldest first) and
// the latest paid rewards. The parent of the child and the child itself may
// read it.
func (s *Service) EarningMeter(ctx context.Context, actor auth.Actor, childID int64) (*model.EarningMeter, error) {
	r := s.read()
	c, err := childFor(ctx, r, actor, childID)
	if err != nil {
		return nil, err
	}
	w, err := childWalletFor(ctx, r, c.ID)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(meterDays - 1))
	totals, err := r.txs.DailyTotals(ctx, c.ID, since)
	if err != nil {
		return nil, err
	}

	days := make([]model.DailyEarnings, meterDays)
	index := make(map[string]int, meterDays)
	for i := range days {
		date := since.AddDate(0, 0, i).Format(time.DateOnly)
		days[i] = model.DailyEarnings{Date: date, Earned: decimal.Zero, Spent: decimal.Zero}
		index[date] = i
	}
	for _, t := range totals {
		i, ok := index[t.Day]
		if !ok {
			continue
		}
		switch t.Type {
		case model.TxReward, model.TxAllowance:
			days[i].Earned = days[i].Earned.Add(t.Amount)
		case model.TxSpending, model.TxContribution:
			days[i].Spent = days[i].Spent.Add(t.Amount)
		}
	}

	recent, err := r.txs.List(ctx, c.ParentID, model.TransactionFilter{
		Status:  model.TxPaid,
		Type:    model.TxReward,
		ChildID: c.ID,
		Limit:   meterRecentRewards,
	})
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []model.Transaction{}
	}

	return &model.EarningMeter{
		ChildID:       c.ID,
		TotalEarned:   w.TotalEarned,
		TotalSpent:    w.TotalSpent,
		Balance:       w.Balance,
		SavedBalance:  w.SavedBalance,
		Days:          days,
		RecentRewards: recent,
	}, nil
}
