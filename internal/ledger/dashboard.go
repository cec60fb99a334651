package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/model"
)

// Dashboard returns the parent's projection, from the cache when present.
func (s *Service) Dashboard(ctx context.Context, actor auth.Actor) (*model.DashboardStats, error) {
	if err := requireParent(actor); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if stats, ok := s.cache.Get(ctx, actor.ID); ok {
			return stats, nil
		}
	}

	stats, err := s.computeDashboard(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, stats)
	}
	return stats, nil
}

func (s *Service) computeDashboard(ctx context.Context, parentID int64) (*model.DashboardStats, error) {
	r := s.read()
	shared, err := sharedFor(ctx, r, parentID)
	if err != nil {
		return nil, err
	}
	paid, err := r.txs.Sum(ctx, parentID, model.TxReward, model.TxPaid)
	if err != nil {
		return nil, err
	}
	pending, err := r.txs.Sum(ctx, parentID, model.TxReward, model.TxPending)
	if err != nil {
		return nil, err
	}
	savings, err := r.wallets.ListChildSavings(ctx, parentID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, cs := range savings {
		total = total.Add(cs.Balance).Add(cs.SavedBalance)
	}
	return &model.DashboardStats{
		ParentID:             parentID,
		SharedBalance:        shared.Balance,
		TotalRewardsPaid:     paid,
		TotalRewardsPending:  pending,
		ChildrenCount:        len(savings),
		TotalChildrenBalance: total,
		Savings:              savings,
	}, nil
}
