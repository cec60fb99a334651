// Package ledger is the reward ledger: chore lifecycle, shared-to-child value
// transfer, savings goals and funding. Every mutating operation runs as one
// immediate SQLite transaction, and notices go out only after it commits.
package ledger

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/notify"
	"github.com/dukerupert/kidbank/internal/store"
)

// DashboardCache holds computed dashboard projections. It is never consulted
// by a mutating operation.
type DashboardCache interface {
	Get(ctx context.Context, parentID int64) (*model.DashboardStats, bool)
	Set(ctx context.Context, stats *model.DashboardStats)
}

type Service struct {
	db      *sql.DB
	logger  *slog.Logger
	emitter notify.Emitter
	cache   DashboardCache
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithEmitter(e notify.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

func WithDashboardCache(c DashboardCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(db *sql.DB, opts ...Option) *Service {
	s := &Service{
		db:      db,
		logger:  slog.Default(),
		emitter: notify.Nop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "ledger")
	return s
}

// repos is the set of stores bound to one connection or transaction.
type repos struct {
	family   *store.FamilyStore
	wallets  *store.WalletStore
	txs      *store.TransactionStore
	chores   *store.ChoreStore
	goals    *store.GoalStore
	settings *store.SettingsStore
}

func newRepos(db store.DBTX) repos {
	return repos{
		family:   store.NewFamilyStore(db),
		wallets:  store.NewWalletStore(db),
		txs:      store.NewTransactionStore(db),
		chores:   store.NewChoreStore(db),
		goals:    store.NewGoalStore(db),
		settings: store.NewSettingsStore(db),
	}
}

// read returns stores bound to the pool, for lock-free reads and fast-fail
// precondition checks.
func (s *Service) read() repos {
	return newRepos(s.db)
}

// inTx runs fn as one atomic unit. Only the repos passed to fn may be used
// inside it.
func (s *Service) inTx(ctx context.Context, fn func(r repos) error) error {
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return translate(fn(newRepos(tx)))
	})
	return translate(err)
}

func (s *Service) emit(ctx context.Context, notices ...notify.Notice) {
	for _, n := range notices {
		s.emitter.Notify(ctx, n)
	}
}

// CheckAmount rejects amounts that are not positive, exceed model.MaxAmount
// or carry more than two decimal places.
func CheckAmount(d decimal.Decimal) error {
	if !d.IsPositive() || d.GreaterThan(model.MaxAmount) || !d.Equal(d.Round(2)) {
		return newError(KindInvalidAmount, "amount must be positive, at most "+money(model.MaxAmount)+", with at most two decimal places")
	}
	return nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
