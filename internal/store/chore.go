package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/model"
)

type ChoreStore struct {
	db DBTX
}

func NewChoreStore(db DBTX) *ChoreStore {
	return &ChoreStore{db: db}
}

type NewChore struct {
	Title       string
	Description string
	Reward      decimal.Decimal
	Category    string
	DueDate     time.Time
	AssignedTo  int64
	ParentID    int64
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var reward int64
	var redeemed int
	var completedAt sql.NullTime

	err := scanner.Scan(&c.ID, &c.Title, &c.Description, &reward, &c.Category, &c.DueDate,
		&c.AssignedTo, &c.ParentID, &c.Status, &redeemed, &c.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	c.Reward = fromCents(reward)
	c.IsRedeemed = redeemed != 0
	c.CompletedAt = timePtr(completedAt)
	return &c, nil
}

const choreCols = `id, title, description, reward, category, due_date, assigned_to, parent_id, status, is_redeemed, created_at, completed_at`

func (s *ChoreStore) Create(ctx context.Context, in NewChore) (*model.Chore, error) {
	reward, err := toCents(in.Reward)
	if err != nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chores (title, description, reward, category, due_date, assigned_to, parent_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.Description, reward, in.Category, in.DueDate.UTC(), in.AssignedTo, in.ParentID,
		model.ChorePending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// ListByParent returns every chore a parent owns, soonest due first.
func (s *ChoreStore) ListByParent(ctx context.Context, parentID int64) ([]model.Chore, error) {
	return s.list(ctx, `WHERE parent_id = ? ORDER BY due_date ASC, id ASC`, parentID)
}

// ListByChild returns the chores assigned to a child, soonest due first.
func (s *ChoreStore) ListByChild(ctx context.Context, childID int64) ([]model.Chore, error) {
	return s.list(ctx, `WHERE assigned_to = ? ORDER BY due_date ASC, id ASC`, childID)
}

// ListOverdue returns unredeemed pending or completed chores due before now.
func (s *ChoreStore) ListOverdue(ctx context.Context, now time.Time) ([]model.Chore, error) {
	candidates, err := s.list(ctx,
		`WHERE status IN (?, ?) AND is_redeemed = 0 ORDER BY due_date ASC, id ASC`,
		model.ChorePending, model.ChoreCompleted,
	)
	if err != nil {
		return nil, err
	}
	// due_date is compared in Go; stored timestamps are not reliably ordered as text
	var overdue []model.Chore
	for _, c := range candidates {
		if c.DueDate.Before(now) {
			overdue = append(overdue, c)
		}
	}
	return overdue, nil
}

func (s *ChoreStore) list(ctx context.Context, where string, args ...any) ([]model.Chore, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+choreCols+` FROM chores `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// UpdateStatus moves a chore from one status to another. It fails with
// ErrStaleStatus when the stored status is no longer from.
func (s *ChoreStore) UpdateStatus(ctx context.Context, id int64, from, to model.ChoreStatus, completedAt *time.Time) (*model.Chore, error) {
	var ca sql.NullTime
	if completedAt != nil {
		ca = sql.NullTime{Time: completedAt.UTC(), Valid: true}
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE chores SET status = ?, completed_at = ? WHERE id = ? AND status = ?`,
		to, ca, id, from,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrStaleStatus
	}
	return s.GetByID(ctx, id)
}

// MarkRedeemed flips is_redeemed. Only the first caller succeeds; later
// callers get ErrAlreadyRedeemed.
func (s *ChoreStore) MarkRedeemed(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chores SET is_redeemed = 1 WHERE id = ? AND is_redeemed = 0`, id,
	)
	if err != nil {
		return fmt.Errorf("mark chore redeemed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrAlreadyRedeemed
	}
	return nil
}
