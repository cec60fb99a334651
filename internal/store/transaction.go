package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/model"
)

type TransactionStore struct {
	db DBTX
}

func NewTransactionStore(db DBTX) *TransactionStore {
	return &TransactionStore{db: db}
}

// NewTransaction describes a ledger entry to record. An empty Reference is
// replaced by a generated one.
type NewTransaction struct {
	Reference   string
	ParentID    int64
	ChildID     *int64
	ChoreID     *int64
	Type        model.TransactionType
	Amount      decimal.Decimal
	Description string
}

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.Transaction, error) {
	var t model.Transaction
	var childID, choreID sql.NullInt64
	var amount int64
	var completedAt sql.NullTime

	err := scanner.Scan(&t.ID, &t.Reference, &t.ParentID, &childID, &choreID, &t.Type, &amount,
		&t.Status, &t.Description, &t.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	t.ChildID = int64Ptr(childID)
	t.ChoreID = int64Ptr(choreID)
	t.Amount = fromCents(amount)
	t.CompletedAt = timePtr(completedAt)
	return &t, nil
}

const transactionCols = `id, reference, parent_id, child_id, chore_id, type, amount, status, description, created_at, completed_at`

// Record appends a pending entry.
func (s *TransactionStore) Record(ctx context.Context, in NewTransaction) (*model.Transaction, error) {
	amount, err := toCents(in.Amount)
	if err != nil {
		return nil, err
	}
	ref := in.Reference
	if ref == "" {
		ref = uuid.NewString()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (reference, parent_id, child_id, chore_id, type, amount, status, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ref, in.ParentID, nullInt64(in.ChildID), nullInt64(in.ChoreID), in.Type, amount,
		model.TxPending, in.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateReference
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TransactionStore) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *TransactionStore) GetByReference(ctx context.Context, ref string) (*model.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM transactions WHERE reference = ?`, ref)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction by reference: %w", err)
	}
	return t, nil
}

// MarkPaid moves a pending entry to paid.
func (s *TransactionStore) MarkPaid(ctx context.Context, id int64) (*model.Transaction, error) {
	return s.finish(ctx, id, model.TxPaid)
}

// MarkCancelled moves a pending entry to cancelled.
func (s *TransactionStore) MarkCancelled(ctx context.Context, id int64) (*model.Transaction, error) {
	return s.finish(ctx, id, model.TxCancelled)
}

func (s *TransactionStore) finish(ctx context.Context, id int64, to model.TransactionStatus) (*model.Transaction, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET status = ?, completed_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().UTC(), id, model.TxPending,
	)
	if err != nil {
		return nil, fmt.Errorf("update transaction status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if n == 0 {
		return t, ErrNotPending
	}
	return t, nil
}

// List returns a parent's ledger, newest first.
func (s *TransactionStore) List(ctx context.Context, parentID int64, f model.TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT ` + transactionCols + ` FROM transactions WHERE parent_id = ?`
	args := []any{parentID}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, f.Type)
	}
	if f.ChildID != 0 {
		query += ` AND child_id = ?`
		args = append(args, f.ChildID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// Sum totals a parent's entries of one type and status.
func (s *TransactionStore) Sum(ctx context.Context, parentID int64, typ model.TransactionType, status model.TransactionStatus) (decimal.Decimal, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE parent_id = ? AND type = ? AND status = ?`,
		parentID, typ, status,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	return fromCents(total), nil
}

// CountByChore reports how many entries reference a chore.
func (s *TransactionStore) CountByChore(ctx context.Context, choreID int64, status model.TransactionStatus) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE chore_id = ? AND status = ?`, choreID, status,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chore transactions: %w", err)
	}
	return n, nil
}

// DailyTotals sums a child's paid entries per UTC day and type, for days on
// or after since. created_at is always the database's CURRENT_TIMESTAMP, so
// the day prefix compares as text.
func (s *TransactionStore) DailyTotals(ctx context.Context, childID int64, since time.Time) ([]model.DailyTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m-%d', created_at) AS day, type, SUM(amount)
		 FROM transactions
		 WHERE child_id = ? AND status = ? AND strftime('%Y-%m-%d', created_at) >= ?
		 GROUP BY day, type ORDER BY day ASC, type ASC`,
		childID, model.TxPaid, since.UTC().Format(time.DateOnly),
	)
	if err != nil {
		return nil, fmt.Errorf("daily transaction totals: %w", err)
	}
	defer rows.Close()

	var out []model.DailyTotal
	for rows.Next() {
		var d model.DailyTotal
		var cents int64
		if err := rows.Scan(&d.Day, &d.Type, &cents); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		d.Amount = fromCents(cents)
		out = append(out, d)
	}
	return out, rows.Err()
}
