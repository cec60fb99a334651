package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/kidbank/internal/model"
)

type SettingsStore struct {
	db DBTX
}

func NewSettingsStore(db DBTX) *SettingsStore {
	return &SettingsStore{db: db}
}

// Seed inserts default reward settings for a parent. Existing settings are kept.
func (s *SettingsStore) Seed(ctx context.Context, parentID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reward_settings (parent_id) VALUES (?)`, parentID,
	)
	if err != nil {
		return fmt.Errorf("seed reward settings: %w", err)
	}
	return nil
}

// Get returns a parent's reward settings, or the defaults when none are stored.
func (s *SettingsStore) Get(ctx context.Context, parentID int64) (*model.RewardSettings, error) {
	rs := model.RewardSettings{ParentID: parentID, AllowSavings: true}
	var approval, savings int
	err := s.db.QueryRowContext(ctx,
		`SELECT approval_required, allow_savings, updated_at FROM reward_settings WHERE parent_id = ?`,
		parentID,
	).Scan(&approval, &savings, &rs.UpdatedAt)
	if err == sql.ErrNoRows {
		return &rs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward settings: %w", err)
	}
	rs.ApprovalRequired = approval != 0
	rs.AllowSavings = savings != 0
	return &rs, nil
}

func (s *SettingsStore) Update(ctx context.Context, parentID int64, approvalRequired, allowSavings bool) (*model.RewardSettings, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reward_settings (parent_id, approval_required, allow_savings) VALUES (?, ?, ?)
		 ON CONFLICT(parent_id) DO UPDATE SET approval_required = excluded.approval_required,
		     allow_savings = excluded.allow_savings, updated_at = CURRENT_TIMESTAMP`,
		parentID, boolInt(approvalRequired), boolInt(allowSavings),
	)
	if err != nil {
		return nil, fmt.Errorf("update reward settings: %w", err)
	}
	return s.Get(ctx, parentID)
}
