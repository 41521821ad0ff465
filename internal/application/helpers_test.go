package application_test

import (
	"context"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/chill/internal/adapter/driven/memory"
	"github.com/ericfisherdev/chill/internal/application"
	"github.com/ericfisherdev/chill/internal/domain/model"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

type fixture struct {
	store    *memory.Store
	accounts *application.AccountService
	history  *application.HistoryService
	sessions *application.SessionManager
	conv     *application.ConversationService
}

// newFixture wires the services over an in-memory store with zero think time.
func newFixture(t *testing.T, opts application.ConversationOptions) *fixture {
	t.Helper()

	store := memory.New()
	return newFixtureWithTranscripts(t, store, store, opts)
}

func newFixtureWithTranscripts(t *testing.T, store *memory.Store, transcripts driven.TranscriptStore, opts application.ConversationOptions) *fixture {
	t.Helper()

	if opts.ThinkTime == nil {
		opts.ThinkTime = application.FixedThinkTime(0)
	}
	if opts.VoiceDelay == 0 {
		opts.VoiceDelay = -1
	}
	if opts.NewBackOff == nil {
		opts.NewBackOff = func() backoff.BackOff {
			return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
		}
	}

	history := application.NewHistoryService(transcripts)
	return &fixture{
		store:    store,
		accounts: application.NewAccountService(store, nil, nil),
		history:  history,
		sessions: application.NewSessionManager(store, store, history),
		conv:     application.NewConversationService(history, opts),
	}
}

// login registers identifier and starts a session for it.
func (f *fixture) login(t *testing.T, identifier string) *application.Session {
	t.Helper()
	ctx := context.Background()

	account, err := f.accounts.Register(ctx, identifier, "secret1", "Test User")
	require.NoError(t, err)
	sess, _, err := f.sessions.Login(ctx, account)
	require.NoError(t, err)
	return sess
}

// flakyTranscripts fails the next failAssistant assistant appends with
// ErrStoreUnavailable and then delegates.
type flakyTranscripts struct {
	driven.TranscriptStore

	mu            sync.Mutex
	failAssistant int
	failUser      bool
	attempts      int
}

func (f *flakyTranscripts) Append(ctx context.Context, identifier string, turn model.Turn) ([]model.Turn, error) {
	f.mu.Lock()
	if turn.Author == model.AuthorUser && f.failUser {
		f.mu.Unlock()
		return nil, driven.ErrStoreUnavailable
	}
	if turn.Author == model.AuthorAssistant {
		f.attempts++
		if f.failAssistant > 0 {
			f.failAssistant--
			f.mu.Unlock()
			return nil, driven.ErrStoreUnavailable
		}
	}
	f.mu.Unlock()
	return f.TranscriptStore.Append(ctx, identifier, turn)
}
