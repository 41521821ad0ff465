package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Credential schemes accepted by NewCredentialVerifier.
const (
	SchemePlain  = "plain"
	SchemeArgon2 = "argon2"
)

// CredentialVerifier encodes secrets for storage and checks candidates
// against a stored encoding.
type CredentialVerifier interface {
	Encode(secret string) (string, error)
	Verify(stored, candidate string) (bool, error)
}

// NewCredentialVerifier returns the verifier for scheme.
func NewCredentialVerifier(scheme string) (CredentialVerifier, error) {
	switch scheme {
	case "", SchemePlain:
		return PlainVerifier{}, nil
	case SchemeArgon2:
		return Argon2Verifier{}, nil
	default:
		return nil, fmt.Errorf("unknown credential scheme %q", scheme)
	}
}

// PlainVerifier stores secrets as given and compares them exactly.
type PlainVerifier struct{}

func (PlainVerifier) Encode(secret string) (string, error) {
	return secret, nil
}

func (PlainVerifier) Verify(stored, candidate string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1, nil
}

const (
	argon2Prefix  = "argon2id"
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

// Argon2Verifier stores "argon2id$<salt>$<key>" with base64 fields and a
// random per-secret salt.
type Argon2Verifier struct{}

func (Argon2Verifier) Encode(secret string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := deriveKey(secret, salt)
	return strings.Join([]string{
		argon2Prefix,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, "$"), nil
}

func (Argon2Verifier) Verify(stored, candidate string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 || parts[0] != argon2Prefix {
		return false, errors.New("stored secret is not an argon2id encoding")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("decode key: %w", err)
	}
	return subtle.ConstantTimeCompare(want, deriveKey(candidate, salt)) == 1, nil
}

func deriveKey(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, 1, 64*1024, 4, argon2KeyLen)
}
