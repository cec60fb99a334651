package notify

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/database"
	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/push"
	"github.com/dukerupert/kidbank/internal/store"
	"github.com/dukerupert/kidbank/internal/websocket"
)

func setupSinkTestDB(t *testing.T) store.DBTX {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInboxSink(t *testing.T) {
	db := setupSinkTestDB(t)
	ns := store.NewNotificationStore(db)
	sink := NewInboxSink(ns)
	ctx := context.Background()

	err := sink.Deliver(ctx, Notice{
		RecipientID: 4, RecipientRole: auth.RoleChild, Type: model.NotifRewardPaid,
		Title: "Reward paid", Message: "You earned 5.00", RelatedID: 9,
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	list, err := ns.ListByRecipient(ctx, "child", 4, false, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	if list[0].RelatedID == nil || *list[0].RelatedID != 9 {
		t.Errorf("related_id = %v, want 9", list[0].RelatedID)
	}
}

func TestHubSink(t *testing.T) {
	hub := websocket.NewHub(slog.Default())
	sink := NewHubSink(hub)
	// no clients connected; delivery is a no-op
	if err := sink.Deliver(context.Background(), Notice{RecipientID: 1, RecipientRole: auth.RoleParent}); err != nil {
		t.Errorf("deliver: %v", err)
	}
}

type fakeSender struct {
	sent    []string
	expired map[string]bool
}

func (f *fakeSender) Send(sub *model.PushSubscription, p push.Payload) error {
	if f.expired[sub.Endpoint] {
		return push.ErrExpired
	}
	f.sent = append(f.sent, sub.Endpoint+"|"+p.Title)
	return nil
}

func TestPushSinkPrunesExpired(t *testing.T) {
	db := setupSinkTestDB(t)
	ps := store.NewPushStore(db)
	ctx := context.Background()

	ps.CreateSubscription(ctx, "parent", 1, "https://push.example.com/live", "k", "a", "Phone")
	ps.CreateSubscription(ctx, "parent", 1, "https://push.example.com/dead", "k", "a", "Old phone")
	ps.CreateSubscription(ctx, "child", 1, "https://push.example.com/kid", "k", "a", "Tablet")

	sender := &fakeSender{expired: map[string]bool{"https://push.example.com/dead": true}}
	sink := NewPushSink(ps, sender)

	if err := sink.Deliver(ctx, Notice{RecipientID: 1, RecipientRole: auth.RoleParent, Title: "Chore completed"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(sender.sent) != 1 || sender.sent[0] != "https://push.example.com/live|Chore completed" {
		t.Errorf("sent = %v", sender.sent)
	}
	dead, _ := ps.GetByEndpoint(ctx, "https://push.example.com/dead")
	if dead != nil {
		t.Error("expected expired subscription to be deleted")
	}
}

type fakeMailer struct {
	to, subject []string
}

func (f *fakeMailer) SendNotice(_ context.Context, to, subject, _, _ string) error {
	f.to = append(f.to, to)
	f.subject = append(f.subject, subject)
	return nil
}

func TestEmailSinkParentsOnly(t *testing.T) {
	db := setupSinkTestDB(t)
	fs := store.NewFamilyStore(db)
	ctx := context.Background()

	p, _ := fs.CreateParent(ctx, "Pat", "pat@example.com")
	quiet, _ := fs.CreateParent(ctx, "Quinn", "")

	mailer := &fakeMailer{}
	sink := NewEmailSink(mailer, fs, model.NotifGoalAchieved)

	notices := []Notice{
		{RecipientID: p.ID, RecipientRole: auth.RoleParent, Type: model.NotifGoalAchieved, Title: "Goal achieved"},
		{RecipientID: p.ID, RecipientRole: auth.RoleParent, Type: model.NotifRewardPaid, Title: "not selected"},
		{RecipientID: p.ID, RecipientRole: auth.RoleChild, Type: model.NotifGoalAchieved, Title: "child"},
		{RecipientID: quiet.ID, RecipientRole: auth.RoleParent, Type: model.NotifGoalAchieved, Title: "no email"},
	}
	for _, n := range notices {
		if err := sink.Deliver(ctx, n); err != nil {
			t.Fatalf("deliver %q: %v", n.Title, err)
		}
	}

	if len(mailer.to) != 1 || mailer.to[0] != "pat@example.com" || mailer.subject[0] != "Goal achieved" {
		t.Errorf("mailed to = %v subjects = %v", mailer.to, mailer.subject)
	}
}
