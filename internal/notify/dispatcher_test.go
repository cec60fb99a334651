package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/dukerupert/kidbank/internal/auth"
)

type recordingSink struct {
	mu      sync.Mutex
	name    string
	notices []Notice
	err     error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, n Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notices)
}

func TestDispatcherDeliversToAllSinks(t *testing.T) {
	good := &recordingSink{name: "good"}
	failing := &recordingSink{name: "failing", err: errors.New("boom")}
	d := NewDispatcher(slog.Default(), 8, failing, good)

	d.Start(context.Background())
	for i := 0; i < 3; i++ {
		d.Notify(context.Background(), Notice{RecipientID: 1, RecipientRole: auth.RoleParent, Type: "reward_paid"})
	}
	d.Stop()

	if got := good.count(); got != 3 {
		t.Errorf("good sink = %d notices, want 3", got)
	}
	// a failing sink does not stop delivery to the next one
	if got := failing.count(); got != 3 {
		t.Errorf("failing sink = %d notices, want 3", got)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &recordingSink{name: "sink"}
	d := NewDispatcher(slog.Default(), 2, sink)

	// not started, so nothing drains the queue
	for i := 0; i < 5; i++ {
		d.Notify(context.Background(), Notice{Type: "x"})
	}

	d.Start(context.Background())
	d.Stop()

	if got := sink.count(); got != 2 {
		t.Errorf("delivered = %d, want 2", got)
	}
}

func TestDispatcherAddSink(t *testing.T) {
	d := NewDispatcher(slog.Default(), 0)
	sink := &recordingSink{name: "late"}
	d.AddSink(sink)

	d.Start(context.Background())
	d.Notify(context.Background(), Notice{Type: "x"})
	d.Stop()

	if got := sink.count(); got != 1 {
		t.Errorf("delivered = %d, want 1", got)
	}
}

func TestStopWithoutStart(t *testing.T) {
	d := NewDispatcher(slog.Default(), 1)
	// Should not block or panic
	d.Stop()
}
