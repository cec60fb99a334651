package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/kidbank/internal/model"
)

type NotificationStore struct {
	db DBTX
}

func NewNotificationStore(db DBTX) *NotificationStore {
	return &NotificationStore{db: db}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var relatedID sql.NullInt64
	var read int

	err := scanner.Scan(&n.ID, &n.RecipientID, &n.RecipientRole, &n.Type, &n.Title, &n.Message,
		&relatedID, &read, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	n.RelatedID = int64Ptr(relatedID)
	n.IsRead = read != 0
	return &n, nil
}

const notificationCols = `id, recipient_id, recipient_role, type, title, message, related_id, is_read, created_at`

func (s *NotificationStore) Create(ctx context.Context, n model.Notification) (*model.Notification, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (recipient_id, recipient_role, type, title, message, related_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.RecipientID, n.RecipientRole, n.Type, n.Title, n.Message, nullInt64(n.RelatedID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	created, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return created, nil
}

// ListByRecipient returns a recipient's notifications, newest first.
func (s *NotificationStore) ListByRecipient(ctx context.Context, role string, recipientID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	query := `SELECT ` + notificationCols + ` FROM notifications WHERE recipient_role = ? AND recipient_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	args := []any{role, recipientID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// MarkRead marks one of the recipient's notifications as read.
func (s *NotificationStore) MarkRead(ctx context.Context, id int64, role string, recipientID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND recipient_role = ? AND recipient_id = ?`,
		id, role, recipientID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NotificationStore) CountUnread(ctx context.Context, role string, recipientID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_role = ? AND recipient_id = ? AND is_read = 0`,
		role, recipientID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}
