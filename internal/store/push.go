package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/kidbank/internal/model"
)

type PushStore struct {
	db DBTX
}

func NewPushStore(db DBTX) *PushStore {
	return &PushStore{db: db}
}

const pushCols = `id, recipient_id, recipient_role, endpoint, p256dh_key, auth_key, device_name, created_at`

func (s *PushStore) CreateSubscription(ctx context.Context, role string, recipientID int64, endpoint, p256dh, auth, deviceName string) (*model.PushSubscription, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (recipient_id, recipient_role, endpoint, p256dh_key, auth_key, device_name)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET recipient_id = excluded.recipient_id, recipient_role = excluded.recipient_role,
		     p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key, device_name = excluded.device_name`,
		recipientID, role, endpoint, p256dh, auth, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	// LastInsertId is unreliable on conflict update; re-query by endpoint
	return s.GetByEndpoint(ctx, endpoint)
}

func (s *PushStore) GetByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.QueryRowContext(ctx,
		`SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint,
	).Scan(&sub.ID, &sub.RecipientID, &sub.RecipientRole, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	return &sub, nil
}

func (s *PushStore) ListByRecipient(ctx context.Context, role string, recipientID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pushCols+` FROM push_subscriptions WHERE recipient_role = ? AND recipient_id = ? ORDER BY created_at DESC, id DESC`,
		role, recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.RecipientID, &sub.RecipientRole, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *PushStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}
