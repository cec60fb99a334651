package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dukerupert/kidbank/internal/model"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrDuplicateReference = errors.New("duplicate reference")
	ErrNotPending         = errors.New("transaction not pending")
	ErrStaleStatus        = errors.New("status changed concurrently")
	ErrAlreadyRedeemed    = errors.New("already redeemed")
	ErrGoalNotActive      = errors.New("goal not active")
	ErrBalanceLimit       = errors.New("balance limit reached")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every store can be bound
// to an open transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Amounts are stored as integer cents. toCents rejects anything that is not
// positive, above model.MaxAmount or finer than a cent.
func toCents(d decimal.Decimal) (int64, error) {
	if !d.IsPositive() || d.GreaterThan(model.MaxAmount) || !d.Equal(d.Round(2)) {
		return 0, ErrInvalidAmount
	}
	return d.Shift(2).IntPart(), nil
}

func maxBalanceCents() int64 {
	return model.MaxBalance.Shift(2).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
