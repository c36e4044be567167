package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/breachwatch/internal/domain/model"
	"github.com/ericfisherdev/breachwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// SessionRepo is the SQLite implementation of the SessionStore port.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new SessionRepo backed by the given DB.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create inserts a new session row.
func (r *SessionRepo) Create(ctx context.Context, session model.Session) error {
	const query = `
		INSERT INTO sessions (id, user_id, token, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		session.ID, session.UserID, session.Token,
		session.ExpiresAt.UTC(), session.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByToken retrieves a session by token. Returns nil, nil if absent.
// Expiry is not interpreted here; the auth service decides what an expired
// row means and deletes it.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at FROM sessions WHERE token = ?`

	var (
		session   model.Session
		expiresAt string
		createdAt string
	)

	err := r.db.Reader.QueryRowContext(ctx, query, token).Scan(
		&session.ID, &session.UserID, &session.Token, &expiresAt, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &session, nil
}

// DeleteByToken removes the session. Deleting an absent token is a no-op,
// so concurrent lazy-expiry deletes cannot fail each other.
func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) error {
	const query = `DELETE FROM sessions WHERE token = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session expiring before cutoff and returns
// the number of rows deleted.
func (r *SessionRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at < ?`

	res, err := r.db.Writer.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: rows affected: %w", err)
	}

	return n, nil
}
