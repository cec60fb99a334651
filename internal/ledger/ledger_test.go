package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/database"
	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/notify"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// recorder keeps every notice it is handed.
type recorder struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recorder) Notify(_ context.Context, n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) ofType(typ string) []notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Notice
	for _, n := range r.notices {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

type fixture struct {
	db     *sql.DB
	svc    *Service
	rec    *recorder
	parent auth.Actor
	child  auth.Actor
}

func newFixture(t *testing.T, db *sql.DB) *fixture {
	t.Helper()
	rec := &recorder{}
	svc := New(db, WithEmitter(rec), WithClock(func() time.Time { return testNow }))

	ctx := context.Background()
	p, err := svc.CreateParent(ctx, "Pat", "pat@example.com")
	require.NoError(t, err)
	c, _, err := svc.AddChild(ctx, auth.Parent(p.ID), "Sam", 0)
	require.NoError(t, err)

	return &fixture{db: db, svc: svc, rec: rec, parent: auth.Parent(p.ID), child: auth.Child(c.ID)}
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newFixture(t, db)
}

// setupFile uses an on-disk database so concurrent transactions get their
// own connections.
func setupFile(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "kidbank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newFixture(t, db)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "%s = %s, want %s", msg, got.StringFixed(2), want)
}

func (f *fixture) fund(t *testing.T, amount string) {
	t.Helper()
	_, err := f.svc.FundSharedWallet(context.Background(), f.parent, dec(amount), "")
	require.NoError(t, err)
}

func (f *fixture) chore(t *testing.T, reward string) *model.Chore {
	t.Helper()
	c, err := f.svc.CreateChore(context.Background(), f.parent, ChoreInput{
		Title:      "Dishes",
		Reward:     dec(reward),
		DueDate:    testNow.Add(48 * time.Hour),
		AssignedTo: f.child.ID,
	})
	require.NoError(t, err)
	return c
}

// completedChore returns a chore the child has finished.
func (f *fixture) completedChore(t *testing.T, reward string) *model.Chore {
	t.Helper()
	c := f.chore(t, reward)
	c, err := f.svc.CompleteChore(context.Background(), c.ID, f.child)
	require.NoError(t, err)
	return c
}

func (f *fixture) balances(t *testing.T) (shared, spendable, saved decimal.Decimal) {
	t.Helper()
	ctx := context.Background()
	sw, err := f.svc.GetSharedWallet(ctx, f.parent)
	require.NoError(t, err)
	cw, err := f.svc.GetChildWallet(ctx, f.parent, f.child.ID)
	require.NoError(t, err)
	return sw.Balance, cw.Balance, cw.SavedBalance
}

func (f *fixture) setRate(t *testing.T, rate int) {
	t.Helper()
	_, err := f.svc.SetSavingsRate(context.Background(), f.parent, f.child.ID, rate)
	require.NoError(t, err)
}
