package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/kidbank/internal/auth"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, actor auth.Actor) *Client {
	return &Client{
		hub:   hub,
		conn:  nil,
		actor: actor,
		send:  make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, auth.Parent(1))
	c2 := mockClient(hub, auth.Child(1))

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	// Should not panic
	hub.Unregister(c1)
	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestSendToTargetsActor(t *testing.T) {
	hub := NewHub(slog.Default())

	parent := mockClient(hub, auth.Parent(1))
	// same numeric id, different role
	child := mockClient(hub, auth.Child(1))
	hub.Register(parent)
	hub.Register(child)

	n := hub.SendTo(auth.Parent(1), Message{Type: "reward_paid", Title: "Paid", RelatedID: 42})
	if n != 1 {
		t.Fatalf("sent = %d, want 1", n)
	}

	select {
	case data := <-parent.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "reward_paid" {
			t.Errorf("type = %q, want %q", got.Type, "reward_paid")
		}
		if got.RelatedID != 42 {
			t.Errorf("related_id = %d, want 42", got.RelatedID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}

	select {
	case <-child.send:
		t.Error("child should not receive the parent's message")
	default:
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, auth.Parent(1))
	c2 := mockClient(hub, auth.Child(2))
	hub.Register(c1)
	hub.Register(c2)

	if n := hub.Broadcast(Message{Type: "maintenance"}); n != 2 {
		t.Errorf("sent = %d, want 2", n)
	}
	for _, c := range []*Client{c1, c2} {
		select {
		case <-c.send:
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestSendFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())
	actor := auth.Child(3)

	c := mockClient(hub, actor)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.SendTo(actor, Message{Type: "fill", RelatedID: int64(i)})
	}

	// This should drop the message, not panic or block
	if n := hub.SendTo(actor, Message{Type: "dropped"}); n != 0 {
		t.Errorf("sent = %d, want 0 on full buffer", n)
	}

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			c := mockClient(hub, auth.Child(id))
			hub.Register(c)
			hub.SendTo(auth.Child(id), Message{Type: "concurrent"})
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}(int64(i))
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
