package store

import (
	"context"
	"testing"
)

func TestPushSubscriptionUpsert(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)
	ctx := context.Background()

	sub, err := ps.CreateSubscription(ctx, "parent", 1, "https://push.example.com/sub1", "p256dh_key1", "auth_key1", "Chrome Desktop")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if sub.DeviceName != "Chrome Desktop" {
		t.Errorf("device_name = %q, want %q", sub.DeviceName, "Chrome Desktop")
	}

	// same endpoint updates keys in place
	again, err := ps.CreateSubscription(ctx, "parent", 1, "https://push.example.com/sub1", "p256dh_key2", "auth_key2", "Chrome Laptop")
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}
	if again.ID != sub.ID {
		t.Errorf("id = %d, want %d", again.ID, sub.ID)
	}
	if again.P256dhKey != "p256dh_key2" {
		t.Errorf("p256dh_key = %q, want %q", again.P256dhKey, "p256dh_key2")
	}

	ps.CreateSubscription(ctx, "child", 1, "https://push.example.com/sub2", "k", "a", "Tablet")

	subs, err := ps.ListByRecipient(ctx, "parent", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("parent subs = %d, want 1", len(subs))
	}

	if err := ps.DeleteByEndpoint(ctx, "https://push.example.com/sub1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := ps.GetByEndpoint(ctx, "https://push.example.com/sub1")
	if got != nil {
		t.Error("expected nil after delete")
	}
}
