package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/chill/internal/domain/model"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TranscriptStore = (*TranscriptRepo)(nil)

// TranscriptRepo is the SQLite implementation of the TranscriptStore port interface.
// Turns are ordered by a per-account seq column assigned inside the writer
// transaction, so append order never depends on clock resolution.
type TranscriptRepo struct {
	db *DB
}

// NewTranscriptRepo creates a new TranscriptRepo backed by the given DB.
func NewTranscriptRepo(db *DB) *TranscriptRepo {
	return &TranscriptRepo{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// LoadOrSeed returns the stored turns. An account with no turns gets seed
// persisted in the same transaction that observed the empty log.
func (r *TranscriptRepo) LoadOrSeed(ctx context.Context, identifier string, seed model.Turn) ([]model.Turn, error) {
	turns, err := listTurns(ctx, r.db.Reader, identifier)
	if err != nil {
		return nil, err
	}
	if len(turns) > 0 {
		return turns, nil
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin seed transcript", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Re-check under the writer lock; another caller may have seeded already.
	turns, err = listTurns(ctx, tx, identifier)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		if err := insertTurn(ctx, tx, identifier, seed); err != nil {
			return nil, err
		}
		turns, err = listTurns(ctx, tx, identifier)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit seed transcript", err)
	}
	return turns, nil
}

// Append inserts turn at the tail and returns the committed transcript. The insert
// and the read-back share one transaction; on any failure nothing is written.
func (r *TranscriptRepo) Append(ctx context.Context, identifier string, turn model.Turn) ([]model.Turn, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin append", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertTurn(ctx, tx, identifier, turn); err != nil {
		return nil, err
	}

	turns, err := listTurns(ctx, tx, identifier)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit append", err)
	}
	return turns, nil
}

// Clear deletes every turn for identifier.
func (r *TranscriptRepo) Clear(ctx context.Context, identifier string) error {
	const query = `DELETE FROM turns WHERE account_identifier = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, identifier); err != nil {
		return unavailable(fmt.Sprintf("clear transcript %q", identifier), err)
	}
	return nil
}

func insertTurn(ctx context.Context, q querier, identifier string, turn model.Turn) error {
	const query = `
		INSERT INTO turns (id, account_identifier, seq, author, text, audio_ref, created_at)
		SELECT ?, ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?
		FROM turns WHERE account_identifier = ?
	`

	if !turn.Author.Valid() {
		return fmt.Errorf("append turn: invalid author %q", turn.Author)
	}
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	_, err := q.ExecContext(ctx, query,
		turn.ID, identifier, string(turn.Author), turn.Text, turn.AudioRef, formatTime(turn.CreatedAt),
		identifier,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("append turn for %q: %w", identifier, driven.ErrAccountNotFound)
		}
		return unavailable(fmt.Sprintf("append turn for %q", identifier), err)
	}
	return nil
}

func listTurns(ctx context.Context, q querier, identifier string) ([]model.Turn, error) {
	const query = `
		SELECT id, author, text, audio_ref, created_at
		FROM turns
		WHERE account_identifier = ?
		ORDER BY seq
	`

	rows, err := q.QueryContext(ctx, query, identifier)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("list turns for %q", identifier), err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, unavailable("scan turn", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate turns", err)
	}

	return turns, nil
}

func scanTurn(s scanner) (model.Turn, error) {
	var turn model.Turn
	var author, createdAt string

	if err := s.Scan(&turn.ID, &author, &turn.Text, &turn.AudioRef, &createdAt); err != nil {
		return model.Turn{}, err
	}

	turn.Author = model.Author(author)

	var err error
	turn.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Turn{}, fmt.Errorf("parse created_at: %w", err)
	}

	return turn, nil
}
