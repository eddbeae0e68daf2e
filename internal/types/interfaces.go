// internal/types/interfaces.go
package types

import (
	"context"
	"time"
)

// SessionStore owns call sessions keyed by session id, plus the secondary
// index from phone number to the current active session. Implementations:
// the in-memory store, the Postgres store, and the cache-aside coordinator
// layered over either.
type SessionStore interface {
	// Create inserts the session and points the phone index at it,
	// unconditionally replacing any prior mapping. Returns
	// ErrDuplicateSession if the id is already present.
	Create(ctx context.Context, session *CallSession) (*CallSession, error)

	// Get returns the session or ErrSessionNotFound.
	Get(ctx context.Context, id SessionID) (*CallSession, error)

	// GetActiveByPhone returns the session the phone index points at,
	// provided it exists and is Active. A stale index entry is pruned as a
	// side effect and ErrSessionNotFound returned.
	GetActiveByPhone(ctx context.Context, phoneNumber string) (*CallSession, error)

	// Update merges the partial update into the stored record atomically
	// with respect to other mutators of the same id. A missing session is a
	// silent no-op; callers needing confirmation must Get first.
	Update(ctx context.Context, id SessionID, update SessionUpdate) error

	// End idempotently moves the session to Completed, stamps EndTime, and
	// drops the phone index entry if it points at this session. Returns
	// ErrSessionNotFound if the session does not exist.
	End(ctx context.Context, id SessionID) error

	// SweepExpired removes every Completed session and every session idle
	// longer than ttl, reclaiming phone index entries that still point at
	// them. Returns the number evicted.
	SweepExpired(ctx context.Context, now time.Time, ttl time.Duration) (int, error)

	// ListByPhone returns all sessions for the phone number, newest first.
	ListByPhone(ctx context.Context, phoneNumber string) ([]*CallSession, error)

	// ActiveCount returns the number of Active sessions.
	ActiveCount(ctx context.Context) (int, error)
}

// SessionCache is the fast-lookup representation of sessions. It is a
// remote, fallible dependency: every call may fail and callers treat
// failures as best-effort.
type SessionCache interface {
	// Get returns the cached session or ErrCacheMiss.
	Get(ctx context.Context, id SessionID) (*CallSession, error)

	// Set stores the session with the given expiry.
	Set(ctx context.Context, session *CallSession, ttl time.Duration) error

	// Delete removes the entry; deleting an absent key is not an error.
	Delete(ctx context.Context, id SessionID) error
}

// ProfileStore persists farmer profiles keyed by phone number. Phone numbers
// are opaque lookup keys and stored as given.
type ProfileStore interface {
	Create(ctx context.Context, phoneNumber string, data ProfileData) (*FarmerProfile, error)
	Get(ctx context.Context, phoneNumber string) (*FarmerProfile, error)
	Update(ctx context.Context, phoneNumber string, updates ProfileData) error
	RecordInteraction(ctx context.Context, phoneNumber string, rec InteractionRecord) error
	Delete(ctx context.Context, phoneNumber string) error
}
