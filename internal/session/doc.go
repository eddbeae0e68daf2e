// Package session implements the call-session lifecycle subsystem: the
// in-memory store with its phone-number index, the TTL liveness policy, the
// lifecycle state machine, and the background expiry sweeper.
package session

import "github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"

// Compile-time interface compliance check.
var _ types.SessionStore = (*Store)(nil)
