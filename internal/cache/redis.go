// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

// Redis is the redis-backed session cache. Entries live under
// "session:<id>" with a per-entry expiry supplied by the caller.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis cache talking to the given address.
func NewRedis(addr string) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// NewRedisFromClient wraps an existing client. Used by tests with miniredis.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func sessionKey(id types.SessionID) string {
	return "session:" + string(id)
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get returns the cached session or ErrCacheMiss. Time-typed fields come
// back reconstructed by the JSON round trip.
func (r *Redis) Get(ctx context.Context, id types.SessionID) (*types.CallSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, types.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var sess types.CallSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal cached session: %w", err)
	}
	return &sess, nil
}

// Set stores the serialized session with the given expiry.
func (r *Redis) Set(ctx context.Context, session *types.CallSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes the entry. Absent keys are not an error.
func (r *Redis) Delete(ctx context.Context, id types.SessionID) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
