// internal/session/store.go
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

// Store is the in-memory session store. It holds sessions keyed by id plus
// the phone-number index to the current active session. All operations are
// O(1) or O(sessions) map work under a single lock with no I/O, so a single
// RWMutex is sufficient; sessions are cloned at the boundary so the only way
// to mutate a stored record is through Update, which is atomic per id.
type Store struct {
	mu       sync.RWMutex
	sessions map[types.SessionID]*types.CallSession
	byPhone  map[string]types.SessionID

	now func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[types.SessionID]*types.CallSession),
		byPhone:  make(map[string]types.SessionID),
		now:      time.Now,
	}
}

// Create inserts the session and points the phone index at it. Any prior
// index entry for the phone number is overwritten; the caller is responsible
// for having checked resumability first.
func (s *Store) Create(_ context.Context, session *types.CallSession) (*types.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.SessionID]; exists {
		return nil, types.ErrDuplicateSession
	}

	stored := session.Clone()
	s.sessions[stored.SessionID] = stored
	s.byPhone[stored.PhoneNumber] = stored.SessionID
	return stored.Clone(), nil
}

// Get returns the session or ErrSessionNotFound.
func (s *Store) Get(_ context.Context, id types.SessionID) (*types.CallSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, types.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// GetActiveByPhone looks up the phone index. If the indexed session is
// missing or no longer Active the stale entry is pruned, so an orphaned
// index entry never outlives the lookup that observes it.
func (s *Store) GetActiveByPhone(_ context.Context, phoneNumber string) (*types.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byPhone[phoneNumber]
	if !ok {
		return nil, types.ErrSessionNotFound
	}
	sess, ok := s.sessions[id]
	if !ok || sess.Status != types.StatusActive {
		delete(s.byPhone, phoneNumber)
		return nil, types.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Update merges the partial update into the stored record under the store
// lock, so the read-modify-write is atomic with respect to other mutators of
// the same id. A missing session is a silent no-op: best-effort context
// updates may race with expiry.
//
// The phone index is kept consistent with the status transition: a move to
// Active (the resume protocol) points the index back at this session, and a
// move to a terminal state releases the entry if it points here.
func (s *Store) Update(_ context.Context, id types.SessionID, update types.SessionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}

	sess.Apply(update)

	if update.Status != nil {
		switch {
		case *update.Status == types.StatusActive:
			s.byPhone[sess.PhoneNumber] = id
		case update.Status.Terminal():
			if s.byPhone[sess.PhoneNumber] == id {
				delete(s.byPhone, sess.PhoneNumber)
			}
		}
	}
	return nil
}

// End idempotently completes the session. Already-completed sessions keep
// their original end time.
func (s *Store) End(_ context.Context, id types.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return types.ErrSessionNotFound
	}

	if sess.Status != types.StatusCompleted {
		sess.Status = types.StatusCompleted
		t := s.now()
		sess.EndTime = &t
	}
	if s.byPhone[sess.PhoneNumber] == id {
		delete(s.byPhone, sess.PhoneNumber)
	}
	return nil
}

// SweepExpired removes every Completed session and every session idle longer
// than ttl, clearing phone index entries that still point at evicted
// sessions. Returns the eviction count.
func (s *Store) SweepExpired(_ context.Context, now time.Time, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if sess.Status != types.StatusCompleted && !Expired(sess, now, ttl) {
			continue
		}
		delete(s.sessions, id)
		if s.byPhone[sess.PhoneNumber] == id {
			delete(s.byPhone, sess.PhoneNumber)
		}
		evicted++
	}
	return evicted, nil
}

// ListByPhone returns all sessions for the phone number, newest first.
func (s *Store) ListByPhone(_ context.Context, phoneNumber string) ([]*types.CallSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*types.CallSession
	for _, sess := range s.sessions {
		if sess.PhoneNumber == phoneNumber {
			results = append(results, sess.Clone())
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].StartTime.After(results[j].StartTime)
	})
	return results, nil
}

// ActiveCount returns the number of Active sessions.
func (s *Store) ActiveCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sess := range s.sessions {
		if sess.Status == types.StatusActive {
			count++
		}
	}
	return count, nil
}
