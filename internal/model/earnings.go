package model

import "github.com/shopspring/decimal"

// EarningMeter is a child's earnings view: wallet totals, a daily window of
// money in and out, and the most recent paid rewards.
type EarningMeter struct {
	ChildID       int64           `json:"child_id"`
	TotalEarned   decimal.Decimal `json:"total_earned"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	Balance       decimal.Decimal `json:"balance"`
	SavedBalance  decimal.Decimal `json:"saved_balance"`
	Days          []DailyEarnings `json:"days"`
	RecentRewards []Transaction   `json:"recent_rewards"`
}

// DailyEarnings is one UTC day of the meter. Earned counts rewards and
// allowances; Spent counts spending and goal contributions.
type DailyEarnings struct {
	Date   string          `json:"date"`
	Earned decimal.Decimal `json:"earned"`
	Spent  decimal.Decimal `json:"spent"`
}

// DailyTotal is the paid sum of one transaction type on one UTC day.
type DailyTotal struct {
	Day    string
	Type   TransactionType
	Amount decimal.Decimal
}
