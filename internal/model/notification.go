package model

import "time"

// Notification type constants
const (
	NotifChoreCreated    = "chore_created"
	NotifChoreCompleted  = "chore_completed"
	NotifChoreApproved   = "chore_approved"
	NotifChoreMissed     = "chore_missed"
	NotifRewardPaid      = "reward_paid"
	NotifAllowancePaid   = "allowance_paid"
	NotifGoalContributed = "goal_contributed"
	NotifGoalAchieved    = "goal_achieved"
	NotifWalletFunded    = "wallet_funded"
	NotifChildSpent      = "child_spent"
)

type Notification struct {
	ID            int64     `json:"id"`
	RecipientID   int64     `json:"recipient_id"`
	RecipientRole string    `json:"recipient_role"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	RelatedID     *int64    `json:"related_id"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}
