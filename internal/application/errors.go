package application

import "errors"

// Sentinel errors returned by the application services. Store failures surface
// as driven.ErrAccountNotFound, driven.ErrDuplicateAccount or
// driven.ErrStoreUnavailable.
var (
	// ErrInvalidSecret indicates the presented secret does not match the stored one.
	ErrInvalidSecret = errors.New("invalid secret")

	// ErrInvalidInput indicates a sign-up field is blank or the secret is too short.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyMessage indicates the utterance was empty after trimming whitespace.
	ErrEmptyMessage = errors.New("empty message")

	// ErrBusy indicates a reply is already pending for the account and the
	// submit policy is reject.
	ErrBusy = errors.New("a reply is already pending")

	// ErrNotLoggedIn indicates an operation needed a live session and had none.
	ErrNotLoggedIn = errors.New("not logged in")
)
