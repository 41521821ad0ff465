package driven

import "context"

// SessionStore persists the single process-wide active-account marker.
type SessionStore interface {
	// Active returns the identifier of the active account, or "" when none is set.
	Active(ctx context.Context) (string, error)

	// SetActive replaces the marker. Returns ErrAccountNotFound if the identifier
	// is not a registered account.
	SetActive(ctx context.Context, identifier string) error

	// ClearActive removes the marker. Clearing an absent marker is not an error.
	ClearActive(ctx context.Context) error
}
