// internal/storage/postgres.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

const pgUniqueViolation = "23505"

// Postgres is the durable session store. The sessions table mirrors the
// columnar session fields; interactions live in their own table keyed by
// session id. Opaque context blobs (weather, market) are not persisted.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool to the given DSN.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

const sessionColumns = `session_id, call_id, phone_number, start_time, end_time, last_activity, status, current_topic, previous_queries, detected_crops`

// Create inserts the session row. A primary-key violation maps to
// ErrDuplicateSession.
func (p *Postgres) Create(ctx context.Context, session *types.CallSession) (*types.CallSession, error) {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(session.SessionID),
		session.CallID,
		session.PhoneNumber,
		session.StartTime,
		session.EndTime,
		session.LastActivity,
		string(session.Status),
		nullable(session.Context.CurrentTopic),
		session.Context.PreviousQueries,
		session.Context.DetectedCrops,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, types.ErrDuplicateSession
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return session.Clone(), nil
}

// Get returns the session row with its interactions, or ErrSessionNotFound.
func (p *Postgres) Get(ctx context.Context, id types.SessionID) (*types.CallSession, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions WHERE session_id = $1`, string(id))

	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	if sess.Interactions, err = p.loadInteractions(ctx, id); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetActiveByPhone returns the newest active session for the phone number.
// The status filter takes the place of the in-memory index, so there is no
// stale entry to prune.
func (p *Postgres) GetActiveByPhone(ctx context.Context, phoneNumber string) (*types.CallSession, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE phone_number = $1 AND status = $2
		ORDER BY start_time DESC
		LIMIT 1`, phoneNumber, string(types.StatusActive))

	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select active session: %w", err)
	}

	if sess.Interactions, err = p.loadInteractions(ctx, sess.SessionID); err != nil {
		return nil, err
	}
	return sess, nil
}

// Update merges the partial update inside a transaction holding a row lock,
// keeping the read-modify-write atomic per session id. A missing session is
// a silent no-op. GREATEST on last_activity enforces monotonicity even if an
// out-of-order write slips past the row lock.
func (p *Postgres) Update(ctx context.Context, id types.SessionID, update types.SessionUpdate) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions WHERE session_id = $1
		FOR UPDATE`, string(id))

	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock session: %w", err)
	}

	interactions := update.AppendInteractions
	update.AppendInteractions = nil
	sess.Apply(update)

	_, err = tx.Exec(ctx, `
		UPDATE sessions
		SET call_id = $2,
		    status = $3,
		    end_time = $4,
		    last_activity = GREATEST(last_activity, $5),
		    current_topic = $6,
		    previous_queries = $7,
		    detected_crops = $8
		WHERE session_id = $1`,
		string(id),
		sess.CallID,
		string(sess.Status),
		sess.EndTime,
		sess.LastActivity,
		nullable(sess.Context.CurrentTopic),
		sess.Context.PreviousQueries,
		sess.Context.DetectedCrops,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	for _, rec := range interactions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO interactions (session_id, timestamp, channel, query, response, satisfaction, duration)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			string(id), rec.Timestamp, string(rec.Channel), rec.Query, rec.Response,
			zeroNull(rec.Satisfaction), zeroNull(rec.Duration),
		); err != nil {
			return fmt.Errorf("insert interaction: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// End idempotently completes the session.
func (p *Postgres) End(ctx context.Context, id types.SessionID) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE sessions
		SET status = $2, end_time = COALESCE(end_time, NOW())
		WHERE session_id = $1`,
		string(id), string(types.StatusCompleted))
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrSessionNotFound
	}
	return nil
}

// SweepExpired deletes completed and idle-expired session rows along with
// their interactions.
func (p *Postgres) SweepExpired(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	cutoff := now.Add(-ttl)

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin sweep: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM interactions
		WHERE session_id IN (
			SELECT session_id FROM sessions
			WHERE status = $1 OR GREATEST(last_activity, start_time) < $2
		)`, string(types.StatusCompleted), cutoff); err != nil {
		return 0, fmt.Errorf("sweep interactions: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM sessions
		WHERE status = $1 OR GREATEST(last_activity, start_time) < $2`,
		string(types.StatusCompleted), cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit sweep: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListByPhone returns all sessions for the phone number, newest first.
func (p *Postgres) ListByPhone(ctx context.Context, phoneNumber string) ([]*types.CallSession, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE phone_number = $1
		ORDER BY start_time DESC`, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*types.CallSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ActiveCount returns the number of active session rows.
func (p *Postgres) ActiveCount(ctx context.Context) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM sessions WHERE status = $1`,
		string(types.StatusActive)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return count, nil
}

func (p *Postgres) loadInteractions(ctx context.Context, id types.SessionID) ([]types.InteractionRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT session_id, timestamp, channel, query, response,
		       COALESCE(satisfaction, 0), COALESCE(duration, 0)
		FROM interactions
		WHERE session_id = $1
		ORDER BY timestamp, id`, string(id))
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	defer rows.Close()

	records := []types.InteractionRecord{}
	for rows.Next() {
		var rec types.InteractionRecord
		var sid, channel string
		if err := rows.Scan(&sid, &rec.Timestamp, &channel, &rec.Query, &rec.Response,
			&rec.Satisfaction, &rec.Duration); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		rec.SessionID = types.SessionID(sid)
		rec.Channel = types.Channel(channel)
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*types.CallSession, error) {
	var (
		sess         types.CallSession
		id, status   string
		currentTopic *string
	)
	err := row.Scan(
		&id,
		&sess.CallID,
		&sess.PhoneNumber,
		&sess.StartTime,
		&sess.EndTime,
		&sess.LastActivity,
		&status,
		&currentTopic,
		&sess.Context.PreviousQueries,
		&sess.Context.DetectedCrops,
	)
	if err != nil {
		return nil, err
	}
	sess.SessionID = types.SessionID(id)
	sess.Status = types.SessionStatus(status)
	if currentTopic != nil {
		sess.Context.CurrentTopic = *currentTopic
	}
	if sess.Context.PreviousQueries == nil {
		sess.Context.PreviousQueries = []string{}
	}
	sess.Interactions = []types.InteractionRecord{}
	return &sess, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func zeroNull(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
