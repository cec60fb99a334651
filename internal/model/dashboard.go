package model

import "github.com/shopspring/decimal"

// DashboardStats is the read-side projection shown to a parent.
type DashboardStats struct {
	ParentID             int64           `json:"parent_id"`
	SharedBalance        decimal.Decimal `json:"shared_balance"`
	TotalRewardsPaid     decimal.Decimal `json:"total_rewards_paid"`
	TotalRewardsPending  decimal.Decimal `json:"total_rewards_pending"`
	ChildrenCount        int             `json:"children_count"`
	TotalChildrenBalance decimal.Decimal `json:"total_children_balance"`
	Savings              []ChildSavings  `json:"savings"`
}

type ChildSavings struct {
	ChildID      int64           `json:"child_id"`
	Name         string          `json:"name"`
	Balance      decimal.Decimal `json:"balance"`
	SavedBalance decimal.Decimal `json:"saved_balance"`
	TotalEarned  decimal.Decimal `json:"total_earned"`
	SavingsRate  int             `json:"savings_rate"`
}
