package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/kidbank/internal/model"
)

func TestNotificationInbox(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNotificationStore(db)
	ctx := context.Background()

	related := int64(7)
	first, err := ns.Create(ctx, model.Notification{
		RecipientID: 1, RecipientRole: "parent", Type: model.NotifChoreCompleted,
		Title: "Chore completed", Message: "Sam finished Dishes", RelatedID: &related,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.IsRead {
		t.Error("expected unread")
	}
	if first.RelatedID == nil || *first.RelatedID != 7 {
		t.Errorf("related_id = %v, want 7", first.RelatedID)
	}

	ns.Create(ctx, model.Notification{RecipientID: 1, RecipientRole: "parent", Type: model.NotifWalletFunded, Title: "Funded", Message: "+10"})
	// same id, different role
	ns.Create(ctx, model.Notification{RecipientID: 1, RecipientRole: "child", Type: model.NotifRewardPaid, Title: "Paid", Message: "+5"})

	list, err := ns.ListByRecipient(ctx, "parent", 1, false, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}

	if err := ns.MarkRead(ctx, first.ID, "parent", 1); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := ns.MarkRead(ctx, first.ID, "child", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	unread, _ := ns.CountUnread(ctx, "parent", 1)
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}
	unreadList, _ := ns.ListByRecipient(ctx, "parent", 1, true, 10)
	if len(unreadList) != 1 || unreadList[0].Type != model.NotifWalletFunded {
		t.Errorf("unread list = %+v", unreadList)
	}
}
