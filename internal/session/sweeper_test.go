// internal/session/sweeper_test.go
package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

func TestSweeperEvictsExpiredSessions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now()

	stale := newTestSession("+919000000200")
	stale.StartTime = now.Add(-time.Hour)
	stale.LastActivity = now.Add(-time.Hour)
	if _, err := store.Create(ctx, stale); err != nil {
		t.Fatal(err)
	}

	fresh := newTestSession("+919000000201")
	if _, err := store.Create(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	sweeper := NewSweeper(store, 10*time.Minute, time.Second)
	if err := sweeper.Start(); err != nil {
		t.Fatal(err)
	}
	defer sweeper.Stop()

	// Wait up to 2.5 seconds for the first sweep to fire.
	deadline := time.After(2500 * time.Millisecond)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatal("sweeper did not evict within 2.5s")
		case <-ticker.C:
			if _, err := store.Get(ctx, stale.SessionID); errors.Is(err, types.ErrSessionNotFound) {
				if _, err := store.Get(ctx, fresh.SessionID); err != nil {
					t.Fatalf("fresh session evicted: %v", err)
				}
				return
			}
		}
	}
}

func TestSweeperStopIsClean(t *testing.T) {
	sweeper := NewSweeper(NewStore(), 10*time.Minute, time.Second)
	if err := sweeper.Start(); err != nil {
		t.Fatal(err)
	}
	// Stop blocks until any in-flight sweep finishes and must not panic when
	// no sweep ever ran.
	sweeper.Stop()
}
