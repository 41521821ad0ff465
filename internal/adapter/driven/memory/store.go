// Package memory provides process-local implementations of the driven ports.
// Nothing survives a restart; it backs ephemeral sessions and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/chill/internal/domain/model"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.AccountStore    = (*Store)(nil)
	_ driven.TranscriptStore = (*Store)(nil)
	_ driven.SessionStore    = (*Store)(nil)
	_ driven.AudioStore      = (*Store)(nil)
)

// Store holds accounts, transcripts, the session marker and audio in maps
// guarded by a single mutex.
type Store struct {
	mu       sync.Mutex
	accounts map[string]model.Credential
	turns    map[string][]model.Turn
	active   string
	audio    map[string][]byte
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[string]model.Credential),
		turns:    make(map[string][]model.Turn),
		audio:    make(map[string][]byte),
	}
}

// Create registers a new account. Returns driven.ErrDuplicateAccount if present.
func (s *Store) Create(_ context.Context, cred model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := cred.Account.Identifier
	if _, ok := s.accounts[id]; ok {
		return fmt.Errorf("create account %q: %w", id, driven.ErrDuplicateAccount)
	}
	if cred.Account.CreatedAt.IsZero() {
		cred.Account.CreatedAt = time.Now().UTC()
	}
	s.accounts[id] = cred
	return nil
}

// Get returns a copy of the stored credential.
func (s *Store) Get(_ context.Context, identifier string) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.accounts[identifier]
	if !ok {
		return nil, fmt.Errorf("get account %q: %w", identifier, driven.ErrAccountNotFound)
	}
	return &cred, nil
}

// LoadOrSeed returns the turns for identifier, persisting seed when there are none.
func (s *Store) LoadOrSeed(_ context.Context, identifier string, seed model.Turn) ([]model.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[identifier]; !ok {
		return nil, fmt.Errorf("load transcript %q: %w", identifier, driven.ErrAccountNotFound)
	}
	if len(s.turns[identifier]) == 0 {
		s.turns[identifier] = []model.Turn{stamp(seed)}
	}
	return slices.Clone(s.turns[identifier]), nil
}

// Append adds turn to the tail and returns a copy of the transcript.
func (s *Store) Append(_ context.Context, identifier string, turn model.Turn) ([]model.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[identifier]; !ok {
		return nil, fmt.Errorf("append turn for %q: %w", identifier, driven.ErrAccountNotFound)
	}
	if !turn.Author.Valid() {
		return nil, fmt.Errorf("append turn: invalid author %q", turn.Author)
	}
	s.turns[identifier] = append(s.turns[identifier], stamp(turn))
	return slices.Clone(s.turns[identifier]), nil
}

// Clear drops every turn for identifier.
func (s *Store) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.turns, identifier)
	return nil
}

// Active returns the marked identifier or "".
func (s *Store) Active(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, nil
}

// SetActive marks identifier as the active account.
func (s *Store) SetActive(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[identifier]; !ok {
		return fmt.Errorf("set active session %q: %w", identifier, driven.ErrAccountNotFound)
	}
	s.active = identifier
	return nil
}

// ClearActive removes the marker.
func (s *Store) ClearActive(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = ""
	return nil
}

// Save buffers the audio and returns a new handle.
func (s *Store) Save(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	handle := uuid.NewString()
	s.audio[handle] = data
	return handle, nil
}

// Open returns a reader over the buffered audio.
func (s *Store) Open(_ context.Context, handle string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.audio[handle]
	if !ok {
		return nil, fmt.Errorf("open audio %q: %w", handle, driven.ErrAudioNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func stamp(turn model.Turn) model.Turn {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	return turn
}
