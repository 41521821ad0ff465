package application_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/chill/internal/application"
)

func TestNewCredentialVerifier(t *testing.T) {
	v, err := application.NewCredentialVerifier("")
	require.NoError(t, err)
	assert.IsType(t, application.PlainVerifier{}, v)

	v, err = application.NewCredentialVerifier(application.SchemeArgon2)
	require.NoError(t, err)
	assert.IsType(t, application.Argon2Verifier{}, v)

	_, err = application.NewCredentialVerifier("bcrypt")
	require.Error(t, err)
}

func TestPlainVerifier(t *testing.T) {
	v := application.PlainVerifier{}

	stored, err := v.Encode("hunter2")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", stored)

	ok, err := v.Verify(stored, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(stored, "Hunter2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2Verifier(t *testing.T) {
	v := application.Argon2Verifier{}

	stored, err := v.Encode("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, "argon2id$"))
	assert.NotContains(t, stored, "hunter2")

	again, err := v.Encode("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, stored, again, "salt must differ per encoding")

	ok, err := v.Verify(stored, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(stored, "hunter3")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = v.Verify("plain-text", "plain-text")
	require.Error(t, err)
}
