package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/chill/internal/domain/model"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

// Session is the handle for one authenticated account. It is passed
// explicitly to conversation operations and stops working after Logout.
type Session struct {
	account   model.Account
	startedAt time.Time
	ended     atomic.Bool
}

// Account returns the authenticated account.
func (s *Session) Account() model.Account { return s.account }

// Identifier returns the authenticated account's identifier.
func (s *Session) Identifier() string { return s.account.Identifier }

// StartedAt returns when the session was established.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Active reports whether the session has not been logged out. A nil session
// is never active.
func (s *Session) Active() bool {
	return s != nil && !s.ended.Load()
}

// SessionManager owns the single active-account marker. The marker is
// persisted through a SessionStore so it survives restarts, and only Login
// and Logout write it.
type SessionManager struct {
	mu       sync.RWMutex
	current  *Session
	store    driven.SessionStore
	accounts driven.AccountStore
	history  *HistoryService
}

// NewSessionManager creates a SessionManager with no active session.
func NewSessionManager(store driven.SessionStore, accounts driven.AccountStore, history *HistoryService) *SessionManager {
	return &SessionManager{
		store:    store,
		accounts: accounts,
		history:  history,
	}
}

// Login makes account the active session and returns its transcript, seeding
// the welcome message on first use. Any previous session is ended.
func (m *SessionManager) Login(ctx context.Context, account model.Account) (*Session, model.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	transcript, err := m.history.Load(ctx, account.Identifier)
	if err != nil {
		return nil, model.Transcript{}, err
	}
	if err := m.store.SetActive(ctx, account.Identifier); err != nil {
		return nil, model.Transcript{}, fmt.Errorf("mark session active: %w", err)
	}

	if m.current != nil {
		m.current.ended.Store(true)
	}
	if account.DisplayName == "" {
		account.DisplayName = account.Name()
	}
	m.current = &Session{account: account, startedAt: time.Now().UTC()}

	slog.Info("session started", "account", account.Identifier, "turns", transcript.Len())
	return m.current, transcript, nil
}

// Logout ends the active session and clears the persisted marker. Calling it
// with no active session is a no-op. History is kept.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.ClearActive(ctx); err != nil {
		return fmt.Errorf("clear session marker: %w", err)
	}
	if m.current == nil {
		return nil
	}

	m.current.ended.Store(true)
	slog.Info("session ended", "account", m.current.Identifier())
	m.current = nil
	return nil
}

// Current returns the active session, or nil.
func (m *SessionManager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CurrentAccount returns the active account, if any.
func (m *SessionManager) CurrentAccount() (model.Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return model.Account{}, false
	}
	return m.current.account, true
}

// Resume restores the session recorded by a previous process. Returns
// ErrNotLoggedIn when no marker is stored. A marker that points at a missing
// account is cleared and reported as ErrNotLoggedIn.
func (m *SessionManager) Resume(ctx context.Context) (*Session, model.Transcript, error) {
	identifier, err := m.store.Active(ctx)
	if err != nil {
		return nil, model.Transcript{}, fmt.Errorf("read session marker: %w", err)
	}
	if identifier == "" {
		return nil, model.Transcript{}, ErrNotLoggedIn
	}

	cred, err := m.accounts.Get(ctx, identifier)
	if errors.Is(err, driven.ErrAccountNotFound) {
		slog.Warn("session marker points at unknown account; clearing", "account", identifier)
		if clearErr := m.store.ClearActive(ctx); clearErr != nil {
			return nil, model.Transcript{}, fmt.Errorf("clear stale session marker: %w", clearErr)
		}
		return nil, model.Transcript{}, ErrNotLoggedIn
	}
	if err != nil {
		return nil, model.Transcript{}, fmt.Errorf("resume session: %w", err)
	}

	return m.Login(ctx, cred.Account)
}
