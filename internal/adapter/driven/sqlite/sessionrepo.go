package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// SessionRepo is the SQLite implementation of the SessionStore port interface.
// The marker lives in a single-row table whose CHECK constraint pins slot = 1.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new SessionRepo backed by the given DB.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Active returns the marked identifier, or "" when no session is active.
func (r *SessionRepo) Active(ctx context.Context) (string, error) {
	const query = `SELECT account_identifier FROM session_marker WHERE slot = 1`

	var identifier string
	err := r.db.Reader.QueryRowContext(ctx, query).Scan(&identifier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("get active session", err)
	}
	return identifier, nil
}

// SetActive upserts the marker. The foreign key guarantees the account exists.
func (r *SessionRepo) SetActive(ctx context.Context, identifier string) error {
	const query = `
		INSERT INTO session_marker (slot, account_identifier, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			account_identifier = excluded.account_identifier,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Writer.ExecContext(ctx, query, identifier, formatTime(time.Now()))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("set active session %q: %w", identifier, driven.ErrAccountNotFound)
		}
		return unavailable(fmt.Sprintf("set active session %q", identifier), err)
	}
	return nil
}

// ClearActive deletes the marker. Deleting an absent marker is a no-op.
func (r *SessionRepo) ClearActive(ctx context.Context) error {
	const query = `DELETE FROM session_marker WHERE slot = 1`

	if _, err := r.db.Writer.ExecContext(ctx, query); err != nil {
		return unavailable("clear active session", err)
	}
	return nil
}
