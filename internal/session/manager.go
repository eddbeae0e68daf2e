// internal/session/manager.go
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

// Manager is the state-machine layer over a SessionStore. It decides when an
// inbound call reuses a live session, resumes a dropped one, or starts
// fresh, and it funnels all context and interaction mutations through the
// store so they stay atomic per session.
type Manager struct {
	store types.SessionStore
	ttl   time.Duration
	grace time.Duration

	now func() time.Time
}

// NewManager creates a Manager. ttl bounds how long an idle session stays
// live; grace bounds how long after a drop the same session may be
// reattached to a new call leg.
func NewManager(store types.SessionStore, ttl, grace time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		grace: grace,
		now:   time.Now,
	}
}

// StartOrResume returns the session for an inbound call and whether it is
// brand new. An Active session for the phone number that passes the liveness
// check is reattached to the new call leg. Failing that, a Dropped session
// still inside the grace window is resumed. Otherwise a new session is
// created; Completed and Transferred sessions never resume.
func (m *Manager) StartOrResume(ctx context.Context, phoneNumber, callID string, profile *types.FarmerProfile) (*types.CallSession, bool, error) {
	now := m.now()

	sess, err := m.store.GetActiveByPhone(ctx, phoneNumber)
	switch {
	case err == nil:
		if Live(sess, now, m.ttl) {
			if err := m.store.Update(ctx, sess.SessionID, types.SessionUpdate{
				CallID:       &callID,
				LastActivity: &now,
			}); err != nil {
				return nil, false, fmt.Errorf("reattach session: %w", err)
			}
			sess, err = m.store.Get(ctx, sess.SessionID)
			if err != nil {
				return nil, false, err
			}
			return sess, false, nil
		}
		// Stale active session: leave it for the sweeper and start over.
	case !errors.Is(err, types.ErrSessionNotFound):
		return nil, false, fmt.Errorf("look up active session: %w", err)
	}

	if resumed, err := m.resumeDropped(ctx, phoneNumber, callID, now); err == nil {
		return resumed, false, nil
	} else if !errors.Is(err, types.ErrNotResumable) && !errors.Is(err, types.ErrSessionNotFound) {
		return nil, false, err
	}

	created, err := m.startSession(ctx, phoneNumber, callID, profile, now)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// resumeDropped finds the most recently dropped session for the phone number
// and reactivates it if its grace window is still open.
func (m *Manager) resumeDropped(ctx context.Context, phoneNumber, callID string, now time.Time) (*types.CallSession, error) {
	sessions, err := m.store.ListByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var candidate *types.CallSession
	for _, sess := range sessions {
		if sess.Status != types.StatusDropped {
			continue
		}
		if candidate == nil || laterEnd(sess, candidate) {
			candidate = sess
		}
	}
	if candidate == nil {
		return nil, types.ErrSessionNotFound
	}
	if !withinGrace(candidate.EndTime, now, m.grace) {
		return nil, types.ErrNotResumable
	}

	active := types.StatusActive
	if err := m.store.Update(ctx, candidate.SessionID, types.SessionUpdate{
		CallID:       &callID,
		Status:       &active,
		ClearEndTime: true,
		LastActivity: &now,
	}); err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}

	resumed, err := m.store.Get(ctx, candidate.SessionID)
	if err != nil {
		return nil, err
	}
	slog.Info("session resumed",
		"session_id", string(resumed.SessionID),
		"phone_number", phoneNumber,
		"call_id", callID,
	)
	return resumed, nil
}

func laterEnd(a, b *types.CallSession) bool {
	if a.EndTime == nil || b.EndTime == nil {
		return b.EndTime == nil
	}
	return a.EndTime.After(*b.EndTime)
}

func (m *Manager) startSession(ctx context.Context, phoneNumber, callID string, profile *types.FarmerProfile, now time.Time) (*types.CallSession, error) {
	sess := &types.CallSession{
		SessionID:    types.NewSessionID(),
		CallID:       callID,
		PhoneNumber:  phoneNumber,
		Status:       types.StatusActive,
		StartTime:    now,
		LastActivity: now,
		Context: types.SessionContext{
			PreviousQueries: []string{},
		},
		Interactions:  []types.InteractionRecord{},
		FarmerProfile: profile,
	}

	created, err := m.store.Create(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	slog.Info("session started",
		"session_id", string(created.SessionID),
		"phone_number", phoneNumber,
		"call_id", callID,
	)
	return created, nil
}

// Get returns the session or ErrSessionNotFound.
func (m *Manager) Get(ctx context.Context, id types.SessionID) (*types.CallSession, error) {
	return m.store.Get(ctx, id)
}

// MergeContext shallow-merges the supplied fields into the session context,
// overwriting same-named fields and leaving the rest untouched, and bumps
// the activity clock.
func (m *Manager) MergeContext(ctx context.Context, id types.SessionID, update types.ContextUpdate) error {
	if _, err := m.store.Get(ctx, id); err != nil {
		return err
	}
	now := m.now()
	return m.store.Update(ctx, id, types.SessionUpdate{
		Context:      &update,
		LastActivity: &now,
	})
}

// AppendInteraction appends the record to the session's interaction log and
// bumps the activity clock.
func (m *Manager) AppendInteraction(ctx context.Context, id types.SessionID, rec types.InteractionRecord) error {
	if _, err := m.store.Get(ctx, id); err != nil {
		return err
	}
	rec.SessionID = id
	if rec.Timestamp.IsZero() {
		rec.Timestamp = m.now()
	}
	now := m.now()
	return m.store.Update(ctx, id, types.SessionUpdate{
		AppendInteractions: []types.InteractionRecord{rec},
		LastActivity:       &now,
	})
}

// EndSession idempotently completes the session. Completed sessions are
// never resumable.
func (m *Manager) EndSession(ctx context.Context, id types.SessionID) error {
	return m.store.End(ctx, id)
}

// MarkDropped records an unexpected disconnect, starting the resume grace
// window. Only an Active session transitions; a drop racing a deliberate end
// is a no-op.
func (m *Manager) MarkDropped(ctx context.Context, id types.SessionID) error {
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.Status != types.StatusActive {
		return nil
	}
	dropped := types.StatusDropped
	now := m.now()
	return m.store.Update(ctx, id, types.SessionUpdate{
		Status:  &dropped,
		EndTime: &now,
	})
}

// History returns all sessions recorded for the phone number, newest first.
func (m *Manager) History(ctx context.Context, phoneNumber string) ([]*types.CallSession, error) {
	return m.store.ListByPhone(ctx, phoneNumber)
}

// ActiveByPhone returns the currently active session for the phone number,
// or ErrSessionNotFound.
func (m *Manager) ActiveByPhone(ctx context.Context, phoneNumber string) (*types.CallSession, error) {
	return m.store.GetActiveByPhone(ctx, phoneNumber)
}
