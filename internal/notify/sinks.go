package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/kidbank/internal/auth"
	"github.com/dukerupert/kidbank/internal/model"
	"github.com/dukerupert/kidbank/internal/push"
	"github.com/dukerupert/kidbank/internal/store"
	"github.com/dukerupert/kidbank/internal/websocket"
)

func relatedPtr(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// InboxSink persists notices as in-app notifications.
type InboxSink struct {
	notifications *store.NotificationStore
}

func NewInboxSink(ns *store.NotificationStore) *InboxSink {
	return &InboxSink{notifications: ns}
}

func (s *InboxSink) Name() string { return "inbox" }

func (s *InboxSink) Deliver(ctx context.Context, n Notice) error {
	_, err := s.notifications.Create(ctx, model.Notification{
		RecipientID:   n.RecipientID,
		RecipientRole: string(n.RecipientRole),
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
		RelatedID:     relatedPtr(n.RelatedID),
	})
	return err
}

// HubSink streams notices to the recipient's open WebSocket connections.
type HubSink struct {
	hub *websocket.Hub
}

func NewHubSink(hub *websocket.Hub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Name() string { return "websocket" }

func (s *HubSink) Deliver(_ context.Context, n Notice) error {
	s.hub.SendTo(auth.Actor{ID: n.RecipientID, Role: n.RecipientRole}, websocket.Message{
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		RelatedID: n.RelatedID,
	})
	return nil
}

// Sender sends one web push message.
type Sender interface {
	Send(sub *model.PushSubscription, payload push.Payload) error
}

// PushSink sends notices to every push subscription of the recipient and
// prunes subscriptions the push service reports as expired.
type PushSink struct {
	subs   *store.PushStore
	sender Sender
}

func NewPushSink(subs *store.PushStore, sender Sender) *PushSink {
	return &PushSink{subs: subs, sender: sender}
}

func (s *PushSink) Name() string { return "push" }

func (s *PushSink) Deliver(ctx context.Context, n Notice) error {
	subs, err := s.subs.ListByRecipient(ctx, string(n.RecipientRole), n.RecipientID)
	if err != nil {
		return err
	}

	var errs []error
	for i := range subs {
		err := s.sender.Send(&subs[i], push.Payload{Title: n.Title, Body: n.Message, Tag: n.Type})
		if errors.Is(err, push.ErrExpired) {
			if err := s.subs.DeleteByEndpoint(ctx, subs[i].Endpoint); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Mailer sends a plain notification email.
type Mailer interface {
	SendNotice(ctx context.Context, toEmail, subject, message, tag string) error
}

// EmailSink emails parents about the notice types it is configured for.
type EmailSink struct {
	mailer  Mailer
	parents *store.FamilyStore
	types   map[string]bool
}

func NewEmailSink(mailer Mailer, parents *store.FamilyStore, types ...string) *EmailSink {
	t := make(map[string]bool, len(types))
	for _, typ := range types {
		t[typ] = true
	}
	return &EmailSink{mailer: mailer, parents: parents, types: t}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(ctx context.Context, n Notice) error {
	if n.RecipientRole != auth.RoleParent || !s.types[n.Type] {
		return nil
	}
	p, err := s.parents.GetParent(ctx, n.RecipientID)
	if err != nil {
		return err
	}
	if p == nil || p.Email == "" {
		return nil
	}
	if err := s.mailer.SendNotice(ctx, p.Email, n.Title, n.Message, n.Type); err != nil {
		return fmt.Errorf("email parent %d: %w", p.ID, err)
	}
	return nil
}

// SinkFunc adapts a function to a Sink.
type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, n Notice) error
}

func (f SinkFunc) Name() string { return f.SinkName }

func (f SinkFunc) Deliver(ctx context.Context, n Notice) error { return f.Fn(ctx, n) }
