package database

import (
	"path/filepath"
	"testing"
)

func TestOpenMemoryRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	v, err := Version(db)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != 4 {
		t.Errorf("version = %d, want 4", v)
	}

	for _, table := range []string{
		"parents", "children", "reward_settings", "shared_wallets", "child_wallets",
		"transactions", "chores", "goals", "goal_contributions", "notifications", "push_subscriptions",
	} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`INSERT INTO children (parent_id, name) VALUES (999, 'Orphan')`)
	if err == nil {
		t.Error("expected foreign key violation for unknown parent")
	}
}

func TestBalanceCheckConstraint(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO parents (name) VALUES ('Pat')`); err != nil {
		t.Fatalf("insert parent: %v", err)
	}
	_, err = db.Exec(`INSERT INTO shared_wallets (parent_id, balance) VALUES (1, -1)`)
	if err == nil {
		t.Error("expected check constraint violation for negative balance")
	}
}

func TestOpenFileReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kidbank.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO parents (name) VALUES ('Pat')`); err != nil {
		t.Fatalf("insert parent: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM parents`).Scan(&n); err != nil {
		t.Fatalf("count parents: %v", err)
	}
	if n != 1 {
		t.Errorf("parents = %d, want 1", n)
	}
}
