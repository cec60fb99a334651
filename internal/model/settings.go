package model

import "time"

type RewardSettings struct {
	ParentID         int64     `json:"parent_id"`
	ApprovalRequired bool      `json:"approval_required"`
	AllowSavings     bool      `json:"allow_savings"`
	UpdatedAt        time.Time `json:"updated_at"`
}
