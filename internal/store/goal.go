package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/model"
)

type GoalStore struct {
	db DBTX
}

func NewGoalStore(db DBTX) *GoalStore {
	return &GoalStore{db: db}
}

func scanGoal(scanner interface{ Scan(...any) error }) (*model.Goal, error) {
	var g model.Goal
	var target int64
	var achievedAt sql.NullTime

	err := scanner.Scan(&g.ID, &g.ChildID, &g.Title, &g.Description, &target, &g.TargetDurationMonths,
		&g.Status, &g.Trophy, &g.CreatedAt, &achievedAt)
	if err != nil {
		return nil, err
	}

	g.TargetAmount = fromCents(target)
	g.AchievedAt = timePtr(achievedAt)
	return &g, nil
}

const goalCols = `id, child_id, title, description, target_amount, target_duration_months, status, trophy, created_at, achieved_at`

func (s *GoalStore) Create(ctx context.Context, childID int64, title, description string, target decimal.Decimal, durationMonths int) (*model.Goal, error) {
	targetC, err := toCents(target)
	if err != nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (child_id, title, description, target_amount, target_duration_months, status, trophy)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		childID, title, description, targetC, durationMonths, model.GoalActive, model.TrophyNone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *GoalStore) GetByID(ctx context.Context, id int64) (*model.Goal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+goalCols+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// ListByChild returns a child's goals, active first, newest first.
func (s *GoalStore) ListByChild(ctx context.Context, childID int64) ([]model.Goal, error) {
	return s.list(ctx,
		`WHERE child_id = ? ORDER BY CASE status WHEN 'active' THEN 0 ELSE 1 END, created_at DESC, id DESC`,
		childID,
	)
}

func (s *GoalStore) ListActiveByChild(ctx context.Context, childID int64) ([]model.Goal, error) {
	return s.list(ctx, `WHERE child_id = ? AND status = ? ORDER BY id ASC`, childID, model.GoalActive)
}

func (s *GoalStore) list(ctx context.Context, where string, args ...any) ([]model.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+goalCols+` FROM goals `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// MarkAchieved flips an active goal to achieved. It returns ErrGoalNotActive
// if the goal was already achieved.
func (s *GoalStore) MarkAchieved(ctx context.Context, id int64, trophy model.Trophy, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE goals SET status = ?, trophy = ?, achieved_at = ? WHERE id = ? AND status = ?`,
		model.GoalAchieved, trophy, at.UTC(), id, model.GoalActive,
	)
	if err != nil {
		return fmt.Errorf("mark goal achieved: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrGoalNotActive
	}
	return nil
}

// --- Contribution methods ---

func (s *GoalStore) AddContribution(ctx context.Context, goalID int64, amount decimal.Decimal) (*model.GoalContribution, error) {
	c, err := toCents(amount)
	if err != nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO goal_contributions (goal_id, amount) VALUES (?, ?)`,
		goalID, c,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal contribution: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var gc model.GoalContribution
	var cents int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id, goal_id, amount, created_at FROM goal_contributions WHERE id = ?`, id,
	).Scan(&gc.ID, &gc.GoalID, &cents, &gc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get goal contribution: %w", err)
	}
	gc.Amount = fromCents(cents)
	return &gc, nil
}

func (s *GoalStore) SumContributions(ctx context.Context, goalID int64) (decimal.Decimal, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM goal_contributions WHERE goal_id = ?`, goalID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum goal contributions: %w", err)
	}
	return fromCents(total), nil
}

func (s *GoalStore) ListContributions(ctx context.Context, goalID int64) ([]model.GoalContribution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, goal_id, amount, created_at FROM goal_contributions WHERE goal_id = ? ORDER BY id ASC`,
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goal contributions: %w", err)
	}
	defer rows.Close()

	var out []model.GoalContribution
	for rows.Next() {
		var gc model.GoalContribution
		var cents int64
		if err := rows.Scan(&gc.ID, &gc.GoalID, &cents, &gc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goal contribution: %w", err)
		}
		gc.Amount = fromCents(cents)
		out = append(out, gc)
	}
	return out, rows.Err()
}
