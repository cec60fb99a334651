package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type GoalStatus string

const (
	GoalActive   GoalStatus = "active"
	GoalAchieved GoalStatus = "achieved"
)

type Trophy string

const (
	TrophyNone   Trophy = "none"
	TrophyBronze Trophy = "bronze"
	TrophySilver Trophy = "silver"
	TrophyGold   Trophy = "gold"
)

type Goal struct {
	ID                   int64           `json:"id"`
	ChildID              int64           `json:"child_id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	TargetAmount         decimal.Decimal `json:"target_amount"`
	TargetDurationMonths int             `json:"target_duration_months"`
	Status               GoalStatus      `json:"status"`
	Trophy               Trophy          `json:"trophy"`
	CreatedAt            time.Time       `json:"created_at"`
	AchievedAt           *time.Time      `json:"achieved_at"`
}

type GoalContribution struct {
	ID        int64           `json:"id"`
	GoalID    int64           `json:"goal_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// GoalProgress is a goal together with its accumulated contributions.
type GoalProgress struct {
	Goal
	Saved         decimal.Decimal `json:"saved"`
	Percent       decimal.Decimal `json:"percent"`
	DaysRemaining int             `json:"days_remaining"`
}

type GoalSummary struct {
	TotalSaved    decimal.Decimal `json:"total_saved"`
	ActiveCount   int             `json:"active_count"`
	AchievedCount int             `json:"achieved_count"`
}
