// internal/cache/coordinator.go
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

// Coordinator keeps the fast cache consistent with the durable session store
// without consulting the durable store on every read. The durable store is
// the source of truth: writes land there first, and only then is the cache
// upserted (or deleted, on end) to match. A cache that is unreachable never
// fails the operation; population is best-effort. A durable-store failure
// aborts the operation before any cache write, so the cache is never ahead
// of truth.
//
// The cache is not read-your-write under racing updates to the same session:
// the last durable write wins and the cache converges on the next populate.
// Swept sessions converge through entry expiry: every entry is written with
// entryTTL, and entries are only rewritten on activity, so an entry can
// never outlive its session's idle window by more than entryTTL.
type Coordinator struct {
	durable  types.SessionStore
	cache    types.SessionCache
	entryTTL time.Duration
}

// NewCoordinator layers cache over durable. entryTTL is the per-entry cache
// expiry, the configured session-expiry window.
func NewCoordinator(durable types.SessionStore, cache types.SessionCache, entryTTL time.Duration) *Coordinator {
	return &Coordinator{durable: durable, cache: cache, entryTTL: entryTTL}
}

// populate upserts the cache entry, logging and swallowing failures.
func (c *Coordinator) populate(ctx context.Context, sess *types.CallSession) {
	if err := c.cache.Set(ctx, sess, c.entryTTL); err != nil {
		slog.Warn("session cache populate failed", "session_id", string(sess.SessionID), "error", err)
	}
}

// refresh upserts the cache entry after a durable write. If the upsert
// fails, the entry is deleted best-effort so a pre-failure value cannot be
// served once the cache is reachable again.
func (c *Coordinator) refresh(ctx context.Context, sess *types.CallSession) {
	err := c.cache.Set(ctx, sess, c.entryTTL)
	if err == nil {
		return
	}
	slog.Warn("session cache refresh failed", "session_id", string(sess.SessionID), "error", err)
	if err := c.cache.Delete(ctx, sess.SessionID); err != nil {
		slog.Warn("session cache invalidate failed", "session_id", string(sess.SessionID), "error", err)
	}
}

// Create writes the durable store, then populates the cache.
func (c *Coordinator) Create(ctx context.Context, session *types.CallSession) (*types.CallSession, error) {
	created, err := c.durable.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	c.refresh(ctx, created)
	return created, nil
}

// Get consults the cache first. On a miss (or cache failure) it reads the
// durable store and repopulates the cache with the entry TTL.
func (c *Coordinator) Get(ctx context.Context, id types.SessionID) (*types.CallSession, error) {
	cached, err := c.cache.Get(ctx, id)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, types.ErrCacheMiss) {
		slog.Warn("session cache read failed", "session_id", string(id), "error", err)
	}

	sess, err := c.durable.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.populate(ctx, sess)
	return sess, nil
}

// GetActiveByPhone goes straight to the durable store, which owns the phone
// index, and refreshes the cache entry on the way out.
func (c *Coordinator) GetActiveByPhone(ctx context.Context, phoneNumber string) (*types.CallSession, error) {
	sess, err := c.durable.GetActiveByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	c.populate(ctx, sess)
	return sess, nil
}

// Update writes the durable store first, then refreshes the cache entry from
// the merged record. A session gone by read-back (swept concurrently) leaves
// the cache untouched.
func (c *Coordinator) Update(ctx context.Context, id types.SessionID, update types.SessionUpdate) error {
	if err := c.durable.Update(ctx, id, update); err != nil {
		return err
	}
	sess, err := c.durable.Get(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	c.refresh(ctx, sess)
	return nil
}

// End completes the session durably and deletes the cache entry outright; a
// completed session is not read-hot.
func (c *Coordinator) End(ctx context.Context, id types.SessionID) error {
	if err := c.durable.End(ctx, id); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, id); err != nil {
		slog.Warn("session cache delete failed", "session_id", string(id), "error", err)
	}
	return nil
}

// SweepExpired sweeps the durable store. Cache entries for swept sessions
// expire on their own per-entry TTL.
func (c *Coordinator) SweepExpired(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	return c.durable.SweepExpired(ctx, now, ttl)
}

// ListByPhone passes through to the durable store.
func (c *Coordinator) ListByPhone(ctx context.Context, phoneNumber string) ([]*types.CallSession, error) {
	return c.durable.ListByPhone(ctx, phoneNumber)
}

// ActiveCount passes through to the durable store.
func (c *Coordinator) ActiveCount(ctx context.Context) (int, error) {
	return c.durable.ActiveCount(ctx)
}
