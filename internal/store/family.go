package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/kidbank/internal/model"
)

type FamilyStore struct {
	db DBTX
}

func NewFamilyStore(db DBTX) *FamilyStore {
	return &FamilyStore{db: db}
}

func (s *FamilyStore) CreateParent(ctx context.Context, name, email string) (*model.Parent, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO parents (name, email) VALUES (?, ?)`,
		name, email,
	)
	if err != nil {
		return nil, fmt.Errorf("insert parent: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetParent(ctx, id)
}

func (s *FamilyStore) GetParent(ctx context.Context, id int64) (*model.Parent, error) {
	var p model.Parent
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM parents WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get parent: %w", err)
	}
	return &p, nil
}

func (s *FamilyStore) CreateChild(ctx context.Context, parentID int64, name string) (*model.Child, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO children (parent_id, name) VALUES (?, ?)`,
		parentID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert child: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetChild(ctx, id)
}

func (s *FamilyStore) GetChild(ctx context.Context, id int64) (*model.Child, error) {
	var c model.Child
	err := s.db.QueryRowContext(ctx,
		`SELECT id, parent_id, name, created_at FROM children WHERE id = ?`, id,
	).Scan(&c.ID, &c.ParentID, &c.Name, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	return &c, nil
}

// ListChildren returns a parent's children ordered by name.
func (s *FamilyStore) ListChildren(ctx context.Context, parentID int64) ([]model.Child, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, name, created_at FROM children WHERE parent_id = ? ORDER BY name ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		var c model.Child
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, c)
	}
	return children, rows.Err()
}
