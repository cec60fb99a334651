package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/kidbank/internal/model"
)

func TestGoalCreateAndContributions(t *testing.T) {
	db := setupTestDB(t)
	f := seedFamily(t, db, 0)
	gs := NewGoalStore(db)
	ctx := context.Background()

	g, err := gs.Create(ctx, f.childID, "Bike", "red one", dec("50"), 3)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if g.Status != model.GoalActive {
		t.Errorf("status = %q, want %q", g.Status, model.GoalActive)
	}
	if g.Trophy != model.TrophyNone {
		t.Errorf("trophy = %q, want %q", g.Trophy, model.TrophyNone)
	}

	gs.AddContribution(ctx, g.ID, dec("15"))
	gc, err := gs.AddContribution(ctx, g.ID, dec("25.5"))
	if err != nil {
		t.Fatalf("add contribution: %v", err)
	}
	if !gc.Amount.Equal(dec("25.5")) {
		t.Errorf("amount = %s, want 25.5", gc.Amount)
	}

	total, err := gs.SumContributions(ctx, g.ID)
	if err != nil {
		t.Fatalf("sum contributions: %v", err)
	}
	if !total.Equal(dec("40.5")) {
		t.Errorf("total = %s, want 40.5", total)
	}

	list, _ := gs.ListContributions(ctx, g.ID)
	if len(list) != 2 {
		t.Errorf("contributions = %d, want 2", len(list))
	}

	if _, err := gs.AddContribution(ctx, g.ID, dec("-1")); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestGoalMarkAchievedOnce(t *testing.T) {
	db := setupTestDB(t)
	f := seedFamily(t, db, 0)
	gs := NewGoalStore(db)
	ctx := context.Background()

	g, _ := gs.Create(ctx, f.childID, "Bike", "", dec("50"), 1)

	if err := gs.MarkAchieved(ctx, g.ID, model.TrophyGold, time.Now()); err != nil {
		t.Fatalf("mark achieved: %v", err)
	}
	if err := gs.MarkAchieved(ctx, g.ID, model.TrophyBronze, time.Now()); !errors.Is(err, ErrGoalNotActive) {
		t.Errorf("err = %v, want ErrGoalNotActive", err)
	}

	got, _ := gs.GetByID(ctx, g.ID)
	if got.Status != model.GoalAchieved || got.Trophy != model.TrophyGold {
		t.Errorf("goal = %s/%s, want achieved/gold", got.Status, got.Trophy)
	}
	if got.AchievedAt == nil {
		t.Error("expected achieved_at")
	}

	active, _ := gs.ListActiveByChild(ctx, f.childID)
	if len(active) != 0 {
		t.Errorf("active = %d, want 0", len(active))
	}
}

func TestGoalListOrdering(t *testing.T) {
	db := setupTestDB(t)
	f := seedFamily(t, db, 0)
	gs := NewGoalStore(db)
	ctx := context.Background()

	done, _ := gs.Create(ctx, f.childID, "Done", "", dec("5"), 1)
	gs.MarkAchieved(ctx, done.ID, model.TrophyGold, time.Now())
	open, _ := gs.Create(ctx, f.childID, "Open", "", dec("5"), 1)

	goals, err := gs.ListByChild(ctx, f.childID)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 2 || goals[0].ID != open.ID {
		t.Errorf("expected active goal first, got %+v", goals)
	}
}
