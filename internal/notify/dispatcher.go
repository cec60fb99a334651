package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultQueueSize = 256
	deliverTimeout   = 10 * time.Second
	drainTimeout     = 5 * time.Second
)

// Dispatcher queues notices and fans each one out to every sink on a
// background goroutine.
type Dispatcher struct {
	mu     sync.RWMutex
	sinks  []Sink
	queue  chan Notice
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDispatcher creates a dispatcher with the given queue capacity. A
// capacity of zero or less selects the default.
func NewDispatcher(logger *slog.Logger, size int, sinks ...Sink) *Dispatcher {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Dispatcher{
		sinks:  sinks,
		queue:  make(chan Notice, size),
		logger: logger,
	}
}

// AddSink registers another sink. Safe to call while running.
func (d *Dispatcher) AddSink(s Sink) {
	d.mu.Lock()
	d.sinks = append(d.sinks, s)
	d.mu.Unlock()
}

// Notify enqueues a notice. When the queue is full the notice is dropped.
func (d *Dispatcher) Notify(_ context.Context, n Notice) {
	select {
	case d.queue <- n:
	default:
		d.logger.Warn("notice dropped, queue full", "type", n.Type, "recipient_id", n.RecipientID)
	}
}

// Start begins the delivery loop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		for {
			select {
			case <-ctx.Done():
				d.drain()
				return
			case n := <-d.queue:
				d.deliver(ctx, n)
			}
		}
	}()
}

// Stop stops the loop after delivering whatever is still queued.
func (d *Dispatcher) Stop() {
	d.mu.RLock()
	cancel := d.cancel
	done := d.done
	d.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case n := <-d.queue:
			d.deliver(ctx, n)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n Notice) {
	d.mu.RLock()
	sinks := d.sinks
	d.mu.RUnlock()

	for _, s := range sinks {
		sctx, cancel := context.WithTimeout(ctx, deliverTimeout)
		err := s.Deliver(sctx, n)
		cancel()
		if err != nil {
			d.logger.Error("deliver notice", "sink", s.Name(), "type", n.Type, "recipient_id", n.RecipientID, "error", err)
		}
	}
}
