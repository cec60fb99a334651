package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxReward       TransactionType = "reward"
	TxAllowance    TransactionType = "allowance"
	TxFunding      TransactionType = "funding"
	TxSpending     TransactionType = "spending"
	TxContribution TransactionType = "contribution"
)

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxPaid      TransactionStatus = "paid"
	TxCancelled TransactionStatus = "cancelled"
)

type Transaction struct {
	ID          int64             `json:"id"`
	Reference   string            `json:"reference"`
	ParentID    int64             `json:"parent_id"`
	ChildID     *int64            `json:"child_id"`
	ChoreID     *int64            `json:"chore_id"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Status      TransactionStatus `json:"status"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at"`
}

// TransactionFilter narrows a ledger listing. Zero values match everything.
type TransactionFilter struct {
	Status  TransactionStatus
	Type    TransactionType
	ChildID int64
	Limit   int
}
