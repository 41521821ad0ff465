package driven

import (
	"context"

	"github.com/ericfisherdev/chill/internal/domain/model"
)

// TranscriptStore defines the driven port for per-account, append-only turn logs.
// Implementations must apply each Append atomically: the returned slice always
// reflects a fully committed state.
type TranscriptStore interface {
	// LoadOrSeed returns the stored turns for identifier in append order. When the
	// account has no turns yet, seed is persisted first and returned as the only turn.
	LoadOrSeed(ctx context.Context, identifier string, seed model.Turn) ([]model.Turn, error)

	// Append adds turn at the tail of the transcript and returns the full result.
	// Returns ErrAccountNotFound if identifier is not a registered account.
	Append(ctx context.Context, identifier string, turn model.Turn) ([]model.Turn, error)

	// Clear removes every turn for identifier. Used only by administrative wipes.
	Clear(ctx context.Context, identifier string) error
}
