package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/kidbank/internal/auth"
)

func TestEarningMeter(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for range 6 {
		f.earn(t, "2.00")
	}
	_, err := f.svc.Spend(ctx, f.child, dec("1.50"), "Stickers")
	require.NoError(t, err)
	g := f.goal(t, "50.00")
	_, err = f.svc.ContributeToGoal(ctx, g.ID, f.child, dec("2.00"))
	require.NoError(t, err)

	// Rows carry the database clock, so read the window against real time.
	live := New(f.db, WithClock(time.Now))
	m, err := live.EarningMeter(ctx, f.child, f.child.ID)
	require.NoError(t, err)

	assert.Equal(t, f.child.ID, m.ChildID)
	requireDec(t, "12.00", m.TotalEarned, "total earned")
	requireDec(t, "3.50", m.TotalSpent, "total spent")
	requireDec(t, "8.50", m.Balance, "balance")

	require.Len(t, m.Days, 7)
	assert.Equal(t, time.Now().UTC().AddDate(0, 0, -6).Format(time.DateOnly), m.Days[0].Date)
	earned, spent := decimal.Zero, decimal.Zero
	for _, d := range m.Days {
		earned = earned.Add(d.Earned)
		spent = spent.Add(d.Spent)
	}
	requireDec(t, "12.00", earned, "earned in window")
	requireDec(t, "3.50", spent, "spent in window")

	require.Len(t, m.RecentRewards, 5)
	for i := 1; i < len(m.RecentRewards); i++ {
		assert.False(t, m.RecentRewards[i].CreatedAt.After(m.RecentRewards[i-1].CreatedAt), "newest first")
	}

	parentView, err := live.EarningMeter(ctx, f.parent, f.child.ID)
	require.NoError(t, err)
	requireDec(t, "12.00", parentView.TotalEarned, "parent view total earned")
}

func TestEarningMeterWindowExcludesOldDays(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.earn(t, "3.00")

	later := New(f.db, WithClock(func() time.Time { return time.Now().AddDate(0, 0, 30) }))
	m, err := later.EarningMeter(ctx, f.child, f.child.ID)
	require.NoError(t, err)

	requireDec(t, "3.00", m.TotalEarned, "total earned")
	for _, d := range m.Days {
		requireDec(t, "0", d.Earned, "earned on "+d.Date)
		requireDec(t, "0", d.Spent, "spent on "+d.Date)
	}
	assert.Len(t, m.RecentRewards, 1)
}

func TestEarningMeterAccess(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.EarningMeter(ctx, auth.Parent(f.parent.ID+1), f.child.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.EarningMeter(ctx, auth.Child(f.child.ID+1), f.child.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.EarningMeter(ctx, f.parent, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	m, err := f.svc.EarningMeter(ctx, f.child, f.child.ID)
	require.NoError(t, err)
	assert.Empty(t, m.RecentRewards)
	assert.NotNil(t, m.RecentRewards)
}
