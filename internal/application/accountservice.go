package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ericfisherdev/chill/internal/domain/model"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
	"github.com/ericfisherdev/chill/internal/metrics"
)

// MinSecretLength is the shortest secret Register accepts.
const MinSecretLength = 6

// AccountService registers accounts and verifies credentials.
type AccountService struct {
	accounts driven.AccountStore
	verifier CredentialVerifier
	metrics  metrics.Recorder
}

// NewAccountService creates an AccountService. A nil verifier means plain
// comparison; a nil recorder discards metrics.
func NewAccountService(accounts driven.AccountStore, verifier CredentialVerifier, rec metrics.Recorder) *AccountService {
	if verifier == nil {
		verifier = PlainVerifier{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AccountService{
		accounts: accounts,
		verifier: verifier,
		metrics:  rec,
	}
}

// Register creates a new account. An existing identifier is rejected with
// driven.ErrDuplicateAccount and the stored record is left untouched.
func (s *AccountService) Register(ctx context.Context, identifier, secret, displayName string) (model.Account, error) {
	if err := validateSignUp(identifier, secret, displayName); err != nil {
		s.metrics.RecordAuth("register", "invalid_input")
		return model.Account{}, err
	}

	encoded, err := s.verifier.Encode(secret)
	if err != nil {
		return model.Account{}, fmt.Errorf("encode secret: %w", err)
	}

	account := model.Account{
		Identifier:  identifier,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.accounts.Create(ctx, model.Credential{Account: account, Secret: encoded}); err != nil {
		s.metrics.RecordAuth("register", outcome(err))
		return model.Account{}, fmt.Errorf("register %q: %w", identifier, err)
	}

	s.metrics.RecordAuth("register", "ok")
	slog.Info("account registered", "account", identifier)
	return account, nil
}

// Verify checks secret against the stored credential for identifier and
// returns the account on a match.
func (s *AccountService) Verify(ctx context.Context, identifier, secret string) (model.Account, error) {
	cred, err := s.accounts.Get(ctx, identifier)
	if err != nil {
		s.metrics.RecordAuth("verify", outcome(err))
		return model.Account{}, fmt.Errorf("verify %q: %w", identifier, err)
	}

	ok, err := s.verifier.Verify(cred.Secret, secret)
	if err != nil {
		return model.Account{}, fmt.Errorf("verify %q: %w", identifier, err)
	}
	if !ok {
		s.metrics.RecordAuth("verify", "invalid_secret")
		return model.Account{}, fmt.Errorf("verify %q: %w", identifier, ErrInvalidSecret)
	}

	s.metrics.RecordAuth("verify", "ok")
	account := cred.Account
	account.DisplayName = account.Name()
	return account, nil
}

func validateSignUp(identifier, secret, displayName string) error {
	switch {
	case strings.TrimSpace(identifier) == "":
		return fmt.Errorf("identifier is required: %w", ErrInvalidInput)
	case strings.TrimSpace(displayName) == "":
		return fmt.Errorf("display name is required: %w", ErrInvalidInput)
	case utf8.RuneCountInString(secret) < MinSecretLength:
		return fmt.Errorf("secret must be at least %d characters: %w", MinSecretLength, ErrInvalidInput)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, driven.ErrDuplicateAccount):
		return "duplicate"
	case errors.Is(err, driven.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, driven.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
