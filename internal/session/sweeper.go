// internal/session/sweeper.go
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

// Sweeper periodically evicts stale and ended sessions from the store. It is
// owned by the composing application: Start begins the ticker and Stop shuts
// it down, waiting for an in-flight sweep to finish so the task never
// outlives the store it sweeps.
type Sweeper struct {
	store    types.SessionStore
	ttl      time.Duration
	interval time.Duration
	cron     *cron.Cron
}

// NewSweeper creates a Sweeper that runs every interval and evicts sessions
// idle longer than ttl. SkipIfStillRunning keeps ticks single-flight: a slow
// sweep is never overlapped by the next one.
func NewSweeper(store types.SessionStore, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		ttl:      ttl,
		interval: interval,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start registers the sweep entry and starts the ticker.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.sweep); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.cron.Start()
	slog.Info("session sweeper started", "interval", s.interval.String(), "ttl", s.ttl.String())
	return nil
}

// Stop halts the ticker and blocks until any running sweep completes.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("session sweeper stopped")
}

func (s *Sweeper) sweep() {
	evicted, err := s.store.SweepExpired(context.Background(), time.Now(), s.ttl)
	if err != nil {
		slog.Error("session sweep failed", "error", err)
		return
	}
	if evicted > 0 {
		slog.Info("session sweep evicted sessions", "count", evicted)
	}
}
