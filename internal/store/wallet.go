package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/model"
)

type WalletStore struct {
	db DBTX
}

func NewWalletStore(db DBTX) *WalletStore {
	return &WalletStore{db: db}
}

// --- Shared wallet methods ---

func scanSharedWallet(scanner interface{ Scan(...any) error }) (*model.SharedWallet, error) {
	var w model.SharedWallet
	var balance int64
	var pin sql.NullString

	err := scanner.Scan(&w.ID, &w.ParentID, &balance, &pin, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	w.Balance = fromCents(balance)
	w.PINHash = pin.String
	return &w, nil
}

const sharedWalletCols = `id, parent_id, balance, pin_hash, created_at, updated_at`

func (s *WalletStore) CreateShared(ctx context.Context, parentID int64) (*model.SharedWallet, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO shared_wallets (parent_id) VALUES (?)`, parentID)
	if err != nil {
		return nil, fmt.Errorf("insert shared wallet: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetShared(ctx, id)
}

func (s *WalletStore) GetShared(ctx context.Context, id int64) (*model.SharedWallet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sharedWalletCols+` FROM shared_wallets WHERE id = ?`, id)
	w, err := scanSharedWallet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shared wallet: %w", err)
	}
	return w, nil
}

func (s *WalletStore) GetSharedByParent(ctx context.Context, parentID int64) (*model.SharedWallet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sharedWalletCols+` FROM shared_wallets WHERE parent_id = ?`, parentID)
	w, err := scanSharedWallet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shared wallet by parent: %w", err)
	}
	return w, nil
}

// Debit decrements a shared wallet. The balance guard lives in the UPDATE so
// the check and the write are a single statement.
func (s *WalletStore) Debit(ctx context.Context, walletID int64, amount decimal.Decimal) error {
	c, err := toCents(amount)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE shared_wallets SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND balance >= ?`,
		c, walletID, c,
	)
	if err != nil {
		return fmt.Errorf("debit shared wallet: %w", err)
	}
	return s.guardResult(ctx, result, "shared_wallets", walletID, ErrInsufficientFunds)
}

// Credit adds to a shared wallet. A credit that would take the balance past
// model.MaxBalance fails with ErrBalanceLimit.
func (s *WalletStore) Credit(ctx context.Context, walletID int64, amount decimal.Decimal) error {
	c, err := toCents(amount)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE shared_wallets SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND balance + ? <= ?`,
		c, walletID, c, maxBalanceCents(),
	)
	if err != nil {
		return fmt.Errorf("credit shared wallet: %w", err)
	}
	return s.guardResult(ctx, result, "shared_wallets", walletID, ErrBalanceLimit)
}

// SetPINHash stores a bcrypt hash for the wallet. An empty hash clears the PIN.
func (s *WalletStore) SetPINHash(ctx context.Context, walletID int64, hash string) error {
	var h sql.NullString
	if hash != "" {
		h = sql.NullString{String: hash, Valid: true}
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE shared_wallets SET pin_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		h, walletID,
	)
	if err != nil {
		return fmt.Errorf("set wallet pin: %w", err)
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

// --- Child wallet methods ---

func scanChildWallet(scanner interface{ Scan(...any) error }) (*model.ChildWallet, error) {
	var w model.ChildWallet
	var balance, saved, earned, spent int64

	err := scanner.Scan(&w.ID, &w.ChildID, &balance, &saved, &earned, &spent, &w.SavingsRate, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	w.Balance = fromCents(balance)
	w.SavedBalance = fromCents(saved)
	w.TotalEarned = fromCents(earned)
	w.TotalSpent = fromCents(spent)
	return &w, nil
}

const childWalletCols = `id, child_id, balance, saved_balance, total_earned, total_spent, savings_rate, created_at, updated_at`

func (s *WalletStore) CreateChildWallet(ctx context.Context, childID int64, savingsRate int) (*model.ChildWallet, error) {
	if savingsRate < 0 || savingsRate > 100 {
		return nil, ErrInvalidAmount
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO child_wallets (child_id, savings_rate) VALUES (?, ?)`,
		childID, savingsRate,
	)
	if err != nil {
		return nil, fmt.Errorf("insert child wallet: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetChildWallet(ctx, id)
}

func (s *WalletStore) GetChildWallet(ctx context.Context, id int64) (*model.ChildWallet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+childWalletCols+` FROM child_wallets WHERE id = ?`, id)
	w, err := scanChildWallet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child wallet: %w", err)
	}
	return w, nil
}

func (s *WalletStore) GetChildWalletByChild(ctx context.Context, childID int64) (*model.ChildWallet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+childWalletCols+` FROM child_wallets WHERE child_id = ?`, childID)
	w, err := scanChildWallet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child wallet by child: %w", err)
	}
	return w, nil
}

// SplitReward divides a gross amount into its spendable and saved shares.
// The saved share is rounded half away from zero to the cent.
func SplitReward(gross decimal.Decimal, savingsRate int) (spendable, saved decimal.Decimal) {
	saved = gross.Mul(decimal.NewFromInt(int64(savingsRate))).Div(decimal.NewFromInt(100)).Round(2)
	return gross.Sub(saved), saved
}

// CreditWithSplit credits a child wallet, keeping the savings share apart
// from the spendable balance. total_earned grows by the full gross amount and
// may not pass model.MaxBalance; it bounds both balances.
func (s *WalletStore) CreditWithSplit(ctx context.Context, walletID int64, gross decimal.Decimal, savingsRate int) (spendable, saved decimal.Decimal, err error) {
	grossC, err := toCents(gross)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if savingsRate < 0 || savingsRate > 100 {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}
	spendable, saved = SplitReward(gross, savingsRate)
	savedC := saved.Shift(2).IntPart()

	result, err := s.db.ExecContext(ctx,
		`UPDATE child_wallets
		 SET balance = balance + ?, saved_balance = saved_balance + ?, total_earned = total_earned + ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND total_earned + ? <= ?`,
		grossC-savedC, savedC, grossC, walletID, grossC, maxBalanceCents(),
	)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("credit child wallet: %w", err)
	}
	if err := s.guardResult(ctx, result, "child_wallets", walletID, ErrBalanceLimit); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return spendable, saved, nil
}

// DebitChild removes spendable balance from a child wallet and records it
// against total_spent.
func (s *WalletStore) DebitChild(ctx context.Context, walletID int64, amount decimal.Decimal) error {
	c, err := toCents(amount)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE child_wallets
		 SET balance = balance - ?, total_spent = total_spent + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND balance >= ?`,
		c, c, walletID, c,
	)
	if err != nil {
		return fmt.Errorf("debit child wallet: %w", err)
	}
	return s.guardResult(ctx, result, "child_wallets", walletID, ErrInsufficientFunds)
}

func (s *WalletStore) SetSavingsRate(ctx context.Context, walletID int64, rate int) error {
	if rate < 0 || rate > 100 {
		return ErrInvalidAmount
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE child_wallets SET savings_rate = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		rate, walletID,
	)
	if err != nil {
		return fmt.Errorf("set savings rate: %w", err)
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

// ListChildSavings returns the per-child balances of a parent's family.
func (s *WalletStore) ListChildSavings(ctx context.Context, parentID int64) ([]model.ChildSavings, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.name, w.balance, w.saved_balance, w.total_earned, w.savings_rate
		 FROM children c JOIN child_wallets w ON w.child_id = c.id
		 WHERE c.parent_id = ? ORDER BY c.name ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list child savings: %w", err)
	}
	defer rows.Close()

	var out []model.ChildSavings
	for rows.Next() {
		var cs model.ChildSavings
		var balance, saved, earned int64
		if err := rows.Scan(&cs.ChildID, &cs.Name, &balance, &saved, &earned, &cs.SavingsRate); err != nil {
			return nil, fmt.Errorf("scan child savings: %w", err)
		}
		cs.Balance = fromCents(balance)
		cs.SavedBalance = fromCents(saved)
		cs.TotalEarned = fromCents(earned)
		out = append(out, cs)
	}
	return out, rows.Err()
}

// guardResult turns a guarded UPDATE that touched no rows into either
// ErrNotFound or guardErr, the error for the row's guard failing.
func (s *WalletStore) guardResult(ctx context.Context, result sql.Result, table string, id int64, guardErr error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check wallet: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return guardErr
}
