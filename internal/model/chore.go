package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ChoreStatus string

const (
	ChorePending   ChoreStatus = "pending"
	ChoreCompleted ChoreStatus = "completed"
	ChoreApproved  ChoreStatus = "approved"
	ChoreMissed    ChoreStatus = "missed"
)

type Chore struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Reward      decimal.Decimal `json:"reward"`
	Category    string          `json:"category"`
	DueDate     time.Time       `json:"due_date"`
	AssignedTo  int64           `json:"assigned_to"`
	ParentID    int64           `json:"parent_id"`
	Status      ChoreStatus     `json:"status"`
	IsRedeemed  bool            `json:"is_redeemed"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at"`
}
