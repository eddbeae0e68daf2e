// internal/session/manager_test.go
package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

func newTestManager(store *Store) *Manager {
	return NewManager(store, 10*time.Minute, 10*time.Minute)
}

func TestStartOrResumeCreatesNewSession(t *testing.T) {
	store := NewStore()
	mgr := newTestManager(store)
	ctx := context.Background()

	sess, isNew, err := mgr.StartOrResume(ctx, "+919000000100", "c1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !isNew {
		t.Error("expected new session")
	}
	if sess.Status != types.StatusActive {
		t.Errorf("expected active, got %s", sess.Status)
	}
	if sess.CallID != "c1" {
		t.Errorf("expected call id c1, got %s", sess.CallID)
	}
	if sess.EndTime != nil {
		t.Error("new session has end time")
	}
}

func TestStartOrResumeReattachesLiveSession(t *testing.T) {
	store := NewStore()
	mgr := newTestManager(store)
	ctx := context.Background()
	phone := "+919000000101"

	first, _, err := mgr.StartOrResume(ctx, phone, "c1", nil)
	if err != nil {
		t.Fatal(err)
	}

	second, isNew, err := mgr.StartOrResume(ctx, phone, "c2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if isNew {
		t.Error("expected reattach, got new session")
	}
	if second.SessionID != first.SessionID {
		t.Error("reattach produced a different session")
	}
	if second.CallID != "c2" {
		t.Errorf("expected call id updated to c2, got %s", second.CallID)
	}
}

func TestStartOrResumeOnlyOneActivePerPhone(t *testing.T) {
	store := NewStore()
	mgr := newTestManager(store)
	ctx := context.Background()
	phone := "+919000000102"

	for i, callID := range []string{"c1", "c2", "c3"} {
		if _, _, err := mgr.StartOrResume(ctx, phone, callID, nil); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		count, err := store.ActiveCount(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Fatalf("call %d: expected 1 active session, got %d", i, count)
		}
	}
}

func TestStartOrResumeResumesDroppedWithinGrace(t *testing.T) {
	store := NewStore()
	mgr := newTestManager(store)
	ctx := context.Background()
	phone := "+919000000103"

	sess, _, err := mgr.StartOrResume(ctx, phone, "c1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.MarkDropped(ctx, sess.SessionID); err != nil {
		t.Fatal(err)
	}

	resumed, isNew, err := mgr.StartOrResume(ctx, phone, "c2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if isNew {
		t.Error("expected resume of dropped session")
	}
	if resumed.SessionID != sess.SessionID {
		t.Error("resume produced a different session")
	}
	if resumed.Status != types.StatusActive {
		t.Errorf("expected active after resume, got %s", resumed.Status)
	}
	if resumed.EndTime != nil {
		t.Error("resumed session kept end time")
	}
	if resumed.CallID != "c2" {
		t.Errorf("expected new call leg c2, got %s", resumed.CallID)
	}
}

func TestResumeGraceWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	cases := []struct {
		name      string
		droppedAt time.Time
		resumed   bool
	}{
		{"dropped 9 minutes ago", now.Add(-9 * time.Minute), true},
		{"dropped 11 minutes ago", now.Add(-11 * time.Minute), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore()
			mgr := newTestManager(store)
			phone := "+919000000104"

			ended := tc.droppedAt
			dropped := &types.CallSession{
				SessionID:    types.NewSessionID(),
				CallID:       "c1",
				PhoneNumber:  phone,
				Status:       types.StatusDropped,
				StartTime:    now.Add(-30 * time.Minute),
				LastActivity: tc.droppedAt,
				EndTime:      &ended,
				Context:      types.SessionContext{PreviousQueries: []string{}},
			}
			if _, err := store.Create(ctx, dropped); err != nil {
				t.Fatal(err)
			}

			sess, isNew, err := mgr.StartOrResume(ctx, phone, "c2", nil)
			if err != nil {
				t.Fatal(err)
			}
			if tc.resumed {
				if isNew || sess.SessionID != dropped.SessionID {
					t.Error("expected dropped session resumed")
				}
			} else {
				if !isNew || sess.SessionID == dropped.SessionID {
					t.Error("expected brand-new session past grace window")
				}
			}
		})
	}
}

func TestCompletedSessionNeverResumes(t *testing.T) {
	store := NewStore()
	mgr := newTestManager(store)
	ctx := context.Background()
	phone := "+919000000105"

	sess, _, err := mgr.StartOrResume(ctx, phone, "c1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.EndSession(ctx, sess.SessionID); err != nil {
		t.Fatal(err)
	}

	// Immediately calling back after a deliberate end starts fresh.
	next, isNew, err := mgr.StartOrResume(ctx, phone, "c2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !isNew {
		t.Error("expected new session after deliberate end")
	}
	if next.SessionID == sess.SessionID {
		t.Error("completed session was resumed")
	}
}

func TestStartOrResumeSkipsStaleActiveSession(t *testing.T) {
	store := NewStore()
	mgr := newTestManager(store)
	ctx := context.Background()
	phone := "+919000000106"
	now := time.Now()

	stale := &types.CallSession{
		SessionID:    types.NewSessionID(),
		CallID:       "c1",
		PhoneNumber:  phone,
		Status:       types.StatusActive,
		StartTime:    now.Add(-time.Hour),
		LastActivity: now.Add(-30 * time.Minute),
		Context:      types.SessionContext{PreviousQueries: []string{}},
	}
	if _, err := store.Create(ctx, stale); err != nil {
		t.Fatal(err)
	}

	sess, isNew, err := mgr.StartOrResume(ctx, phone, "c2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !isNew {
		t.Error("expected new session when active one is past ttl")
	}
	if sess.SessionID == stale.SessionID {
		t.Error("stale session was reattached")
	}
}

func TestMergeContextScenario(t *testing.T) {
	store := NewStore()
	mgr := newTestManager(store)
	ctx := context.Background()

	sess, _, err := mgr.StartOrResume(ctx, "+919000000107", "c1", nil)
	if err != nil {
		t.Fatal(err)
	}

	topic := "weather"
	if err := mgr.MergeContext(ctx, sess.SessionID, types.ContextUpdate{CurrentTopic: &topic}); err != nil {
		t.Fatal(err)
	}
	if err := mgr.MergeContext(ctx, sess.SessionID, types.ContextUpdate{PreviousQueries: []string{"rain?"}}); err != nil {
		t.Fatal(err)
	}

	got, err := mgr.Get(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Context.CurrentTopic != "weather" {
		t.Errorf("topic lost: %q", got.Context.CurrentTopic)
	}
	if len(got.Context.PreviousQueries) != 1 || got.Context.PreviousQueries[0] != "rain?" {
		t.Errorf("queries lost: %v", got.Context.PreviousQueries)
	}
	if !got.LastActivity.After(sess.LastActivity) {
		t.Error("merge did not bump last activity")
	}
}

func TestMergeContextNotFound(t *testing.T) {
	mgr := newTestManager(NewStore())
	topic := "weather"
	err := mgr.MergeContext(context.Background(), "missing", types.ContextUpdate{CurrentTopic: &topic})
	if !errors.Is(err, types.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppendInteraction(t *testing.T) {
	store := NewStore()
	mgr := newTestManager(store)
	ctx := context.Background()

	sess, _, err := mgr.StartOrResume(ctx, "+919000000108", "c1", nil)
	if err != nil {
		t.Fatal(err)
	}

	rec := types.InteractionRecord{
		Channel:  types.ChannelVoice,
		Query:    "when to irrigate?",
		Response: "early morning",
	}
	if err := mgr.AppendInteraction(ctx, sess.SessionID, rec); err != nil {
		t.Fatal(err)
	}

	got, err := mgr.Get(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Interactions) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(got.Interactions))
	}
	if got.Interactions[0].SessionID != sess.SessionID {
		t.Error("interaction not stamped with session id")
	}
	if got.Interactions[0].Timestamp.IsZero() {
		t.Error("interaction timestamp not defaulted")
	}

	if err := mgr.AppendInteraction(ctx, "missing", rec); !errors.Is(err, types.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMarkDroppedOnlyFromActive(t *testing.T) {
	store := NewStore()
	mgr := newTestManager(store)
	ctx := context.Background()

	sess, _, err := mgr.StartOrResume(ctx, "+919000000109", "c1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.EndSession(ctx, sess.SessionID); err != nil {
		t.Fatal(err)
	}

	// A drop racing a deliberate end does not reopen the session.
	if err := mgr.MarkDropped(ctx, sess.SessionID); err != nil {
		t.Fatal(err)
	}
	got, err := mgr.Get(ctx, sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}

	if err := mgr.MarkDropped(ctx, "missing"); !errors.Is(err, types.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
