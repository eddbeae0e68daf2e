// internal/session/ttl_test.go
package session

import (
	"testing"
	"time"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

func TestExpired(t *testing.T) {
	now := time.Now()
	ttl := 10 * time.Minute

	cases := []struct {
		name         string
		start        time.Time
		lastActivity time.Time
		expired      bool
	}{
		{"fresh session", now.Add(-time.Minute), time.Time{}, false},
		{"idle past ttl", now.Add(-11 * time.Minute), time.Time{}, true},
		{"old start but recent activity", now.Add(-time.Hour), now.Add(-9 * time.Minute), false},
		{"activity exactly at boundary survives", now.Add(-time.Hour), now.Add(-ttl), false},
		{"activity past ttl", now.Add(-time.Hour), now.Add(-11 * time.Minute), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := &types.CallSession{StartTime: tc.start, LastActivity: tc.lastActivity}
			if got := Expired(sess, now, ttl); got != tc.expired {
				t.Errorf("Expired = %v, want %v", got, tc.expired)
			}
			if got := Live(sess, now, ttl); got == tc.expired {
				t.Errorf("Live = %v, want %v", got, !tc.expired)
			}
		})
	}
}

func TestEffectiveActivityUsesLaterTimestamp(t *testing.T) {
	now := time.Now()

	// Activity after start wins.
	sess := &types.CallSession{StartTime: now.Add(-time.Hour), LastActivity: now}
	if got := effectiveActivity(sess); !got.Equal(now) {
		t.Errorf("expected last activity, got %v", got)
	}

	// Unset activity falls back to start.
	sess = &types.CallSession{StartTime: now}
	if got := effectiveActivity(sess); !got.Equal(now) {
		t.Errorf("expected start time, got %v", got)
	}
}

func TestWithinGrace(t *testing.T) {
	now := time.Now()
	grace := 10 * time.Minute

	nineAgo := now.Add(-9 * time.Minute)
	if !withinGrace(&nineAgo, now, grace) {
		t.Error("expected resumable at 9 minutes")
	}

	elevenAgo := now.Add(-11 * time.Minute)
	if withinGrace(&elevenAgo, now, grace) {
		t.Error("expected not resumable at 11 minutes")
	}

	if withinGrace(nil, now, grace) {
		t.Error("expected nil end time not resumable")
	}
}
