// internal/types/ids.go
package types

import "github.com/google/uuid"

// SessionID uniquely identifies a call session for the lifetime of the store.
type SessionID string

// NewSessionID returns a fresh random session identifier. UUIDv4 keeps the
// collision probability negligible without any shared counter.
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}
