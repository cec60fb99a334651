package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/kidbank/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type family struct {
	parentID       int64
	childID        int64
	sharedWalletID int64
	childWalletID  int64
}

// seedFamily creates one parent with a shared wallet and one child with a
// wallet at the given savings rate.
func seedFamily(t *testing.T, db *sql.DB, savingsRate int) family {
	t.Helper()
	ctx := context.Background()
	fs := NewFamilyStore(db)
	ws := NewWalletStore(db)

	p, err := fs.CreateParent(ctx, "Pat", "pat@example.com")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	sw, err := ws.CreateShared(ctx, p.ID)
	if err != nil {
		t.Fatalf("create shared wallet: %v", err)
	}
	c, err := fs.CreateChild(ctx, p.ID, "Sam")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	cw, err := ws.CreateChildWallet(ctx, c.ID, savingsRate)
	if err != nil {
		t.Fatalf("create child wallet: %v", err)
	}
	return family{parentID: p.ID, childID: c.ID, sharedWalletID: sw.ID, childWalletID: cw.ID}
}

func TestFamilyCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFamilyStore(db)
	ctx := context.Background()

	p, err := fs.CreateParent(ctx, "Pat", "pat@example.com")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	if p.Name != "Pat" {
		t.Errorf("name = %q, want %q", p.Name, "Pat")
	}
	if p.Email != "pat@example.com" {
		t.Errorf("email = %q, want %q", p.Email, "pat@example.com")
	}

	c, err := fs.CreateChild(ctx, p.ID, "Sam")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if c.ParentID != p.ID {
		t.Errorf("parent_id = %d, want %d", c.ParentID, p.ID)
	}

	got, err := fs.GetChild(ctx, c.ID)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	if got == nil || got.Name != "Sam" {
		t.Errorf("got child %+v, want Sam", got)
	}
}

func TestFamilyNotFound(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFamilyStore(db)
	ctx := context.Background()

	p, err := fs.GetParent(ctx, 999)
	if err != nil {
		t.Fatalf("get parent: %v", err)
	}
	if p != nil {
		t.Error("expected nil for non-existent parent")
	}

	c, err := fs.GetChild(ctx, 999)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	if c != nil {
		t.Error("expected nil for non-existent child")
	}
}

func TestListChildrenOrdering(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFamilyStore(db)
	ctx := context.Background()

	p, _ := fs.CreateParent(ctx, "Pat", "")
	other, _ := fs.CreateParent(ctx, "Alex", "")
	fs.CreateChild(ctx, p.ID, "Zoe")
	fs.CreateChild(ctx, p.ID, "Ada")
	fs.CreateChild(ctx, other.ID, "Max")

	children, err := fs.ListChildren(ctx, p.ID)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("len = %d, want 2", len(children))
	}
	if children[0].Name != "Ada" || children[1].Name != "Zoe" {
		t.Errorf("order = [%s, %s], want [Ada, Zoe]", children[0].Name, children[1].Name)
	}
}
