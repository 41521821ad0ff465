package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/chill/internal/domain/model"
)

// Sentinel errors returned by AccountStore implementations.
var (
	// ErrAccountNotFound indicates no credential record exists for the identifier.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateAccount indicates a credential record already exists for the identifier.
	ErrDuplicateAccount = errors.New("account already exists")
)

// AccountStore defines the driven port for account profiles and their secrets.
// Secrets are opaque at this boundary; encoding is the verifier's concern.
type AccountStore interface {
	// Create persists a new account and its secret. Returns ErrDuplicateAccount
	// if the identifier is already registered.
	Create(ctx context.Context, cred model.Credential) error

	// Get returns the account and stored secret for identifier. Returns
	// ErrAccountNotFound if no record exists.
	Get(ctx context.Context, identifier string) (*model.Credential, error)
}
