// internal/session/ttl.go
package session

import (
	"time"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

// effectiveActivity returns the timestamp TTL decisions are measured from:
// the most recent of the session's last activity and its start time. A
// session that has never recorded activity falls back to its start time, and
// activity always extends the session's life.
func effectiveActivity(s *types.CallSession) time.Time {
	if s.LastActivity.After(s.StartTime) {
		return s.LastActivity
	}
	return s.StartTime
}

// Expired reports whether the session has been idle longer than ttl as of now.
func Expired(s *types.CallSession, now time.Time, ttl time.Duration) bool {
	return now.Sub(effectiveActivity(s)) > ttl
}

// Live reports whether the session is still within its idle TTL.
func Live(s *types.CallSession, now time.Time, ttl time.Duration) bool {
	return !Expired(s, now, ttl)
}

// withinGrace reports whether a dropped session's end time is still inside
// the resume grace window.
func withinGrace(endTime *time.Time, now time.Time, grace time.Duration) bool {
	if endTime == nil {
		return false
	}
	return now.Sub(*endTime) <= grace
}
