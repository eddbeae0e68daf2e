// Package cache provides the redis-backed fast session store and the
// cache-aside coordinator that keeps it consistent with the durable store.
package cache

import "github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"

// Compile-time interface compliance checks.
var _ types.SessionCache = (*Redis)(nil)
var _ types.SessionStore = (*Coordinator)(nil)
