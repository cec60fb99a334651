package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxAmount bounds any single ledger amount. Balances are stored as int64
// cents, so one billion leaves room for sums.
var MaxAmount = decimal.New(1, 9)

// MaxBalance bounds any wallet balance and a child's lifetime earnings.
var MaxBalance = decimal.New(1, 12)

type SharedWallet struct {
	ID        int64           `json:"id"`
	ParentID  int64           `json:"parent_id"`
	Balance   decimal.Decimal `json:"balance"`
	PINHash   string          `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HasPIN reports whether manual spending from the wallet is PIN-gated.
func (w SharedWallet) HasPIN() bool {
	return w.PINHash != ""
}

type ChildWallet struct {
	ID           int64           `json:"id"`
	ChildID      int64           `json:"child_id"`
	Balance      decimal.Decimal `json:"balance"`
	SavedBalance decimal.Decimal `json:"saved_balance"`
	TotalEarned  decimal.Decimal `json:"total_earned"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	SavingsRate  int             `json:"savings_rate"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
