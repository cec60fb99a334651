// Package sweeper marks overdue chores as missed on a fixed interval.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Ledger is the part of the ledger the sweeper drives.
type Ledger interface {
	SweepMissed(ctx context.Context) (int, error)
}

type Sweeper struct {
	mu       sync.RWMutex
	ledger   Ledger
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// New returns a sweeper that runs every interval. A non-positive interval
// disables it: Start becomes a no-op.
func New(l Ledger, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{ledger: l, interval: interval, logger: logger}
}

// Start sweeps once immediately, then on every tick until ctx is done or Stop
// is called.
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.tick(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	n, err := s.ledger.SweepMissed(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("sweep missed chores", "error", err)
		}
		return
	}
	if n > 0 {
		s.logger.Info("marked chores missed", "count", n)
	}
}
