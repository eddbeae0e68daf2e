// Package storage provides the Postgres-backed durable session store.
package storage

import "github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"

// Compile-time interface compliance check.
var _ types.SessionStore = (*Postgres)(nil)
