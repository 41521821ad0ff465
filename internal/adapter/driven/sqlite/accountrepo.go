package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/chill/internal/domain/model"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the SQLite implementation of the AccountStore port interface.
// One row holds both the profile (account:<id>) and the secret (secret:<id>).
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Create inserts a new account. Returns driven.ErrDuplicateAccount when the
// identifier is already registered; existing records are never overwritten.
func (r *AccountRepo) Create(ctx context.Context, cred model.Credential) error {
	const query = `INSERT INTO accounts (identifier, display_name, secret, created_at) VALUES (?, ?, ?, ?)`

	createdAt := cred.Account.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		cred.Account.Identifier,
		cred.Account.DisplayName,
		cred.Secret,
		formatTime(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create account %q: %w", cred.Account.Identifier, driven.ErrDuplicateAccount)
		}
		return unavailable(fmt.Sprintf("create account %q", cred.Account.Identifier), err)
	}

	return nil
}

// Get returns the account and stored secret for identifier. Returns
// driven.ErrAccountNotFound when no row matches.
func (r *AccountRepo) Get(ctx context.Context, identifier string) (*model.Credential, error) {
	const query = `SELECT identifier, display_name, secret, created_at FROM accounts WHERE identifier = ?`

	var cred model.Credential
	var createdAt string

	err := r.db.Reader.QueryRowContext(ctx, query, identifier).Scan(
		&cred.Account.Identifier,
		&cred.Account.DisplayName,
		&cred.Secret,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account %q: %w", identifier, driven.ErrAccountNotFound)
	}
	if err != nil {
		return nil, unavailable(fmt.Sprintf("get account %q", identifier), err)
	}

	cred.Account.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("parse created_at for account %q", identifier), err)
	}

	return &cred, nil
}
