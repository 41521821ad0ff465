package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

func TestSessionRepo_SetAndClear(t *testing.T) {
	db := setupTestDB(t)
	registerAccount(t, db, "ana@example.com")
	registerAccount(t, db, "ben@example.com")
	repo := NewSessionRepo(db)
	ctx := context.Background()

	active, err := repo.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", active)

	require.NoError(t, repo.SetActive(ctx, "ana@example.com"))
	require.NoError(t, repo.SetActive(ctx, "ben@example.com"))

	active, err = repo.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ben@example.com", active, "the marker holds a single identifier")

	require.NoError(t, repo.ClearActive(ctx))
	require.NoError(t, repo.ClearActive(ctx), "clearing an absent marker is a no-op")

	active, err = repo.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", active)
}

func TestSessionRepo_SetActive_UnknownAccount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)

	err := repo.SetActive(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, driven.ErrAccountNotFound)
}
