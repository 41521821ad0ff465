package model

import (
	"strings"
	"time"
)

// Account is a registered chat user. Identifier is an email-like string that is
// unique and compared case-sensitively. Accounts are immutable after sign-up.
type Account struct {
	Identifier  string
	DisplayName string
	CreatedAt   time.Time
}

// Name returns the recorded display name, falling back to the local part of
// the identifier when none was recorded.
func (a Account) Name() string {
	if strings.TrimSpace(a.DisplayName) != "" {
		return a.DisplayName
	}
	return LocalPart(a.Identifier)
}

// LocalPart returns the portion of identifier before the first "@". An
// identifier without "@" is returned unchanged.
func LocalPart(identifier string) string {
	local, _, _ := strings.Cut(identifier, "@")
	return local
}

// Credential pairs an account with its stored secret. Secret holds whatever the
// configured verifier encoded, which is the raw secret under the plain scheme.
type Credential struct {
	Account Account
	Secret  string
}
