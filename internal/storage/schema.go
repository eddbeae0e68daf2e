// internal/storage/schema.go
package storage

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id VARCHAR(255) PRIMARY KEY,
		call_id VARCHAR(255),
		phone_number VARCHAR(20) NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		last_activity TIMESTAMPTZ NOT NULL,
		status VARCHAR(20) NOT NULL,
		current_topic VARCHAR(255),
		previous_queries TEXT[],
		detected_crops TEXT[],
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS interactions (
		id SERIAL PRIMARY KEY,
		session_id VARCHAR(255) REFERENCES sessions(session_id),
		timestamp TIMESTAMPTZ DEFAULT NOW(),
		channel VARCHAR(20) NOT NULL,
		query TEXT NOT NULL,
		response TEXT NOT NULL,
		satisfaction INTEGER,
		duration INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_phone ON sessions(phone_number)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id)`,
}

// InitSchema creates the session tables and indexes if they do not exist.
func (p *Postgres) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
