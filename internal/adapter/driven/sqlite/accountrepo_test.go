package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/chill/internal/domain/model"
	"github.com/ericfisherdev/chill/internal/domain/port/driven"
)

func TestAccountRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	createdAt := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	err := repo.Create(ctx, model.Credential{
		Account: model.Account{Identifier: "ana@example.com", DisplayName: "Ana", CreatedAt: createdAt},
		Secret:  "hunter22",
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Account.Identifier)
	assert.Equal(t, "Ana", got.Account.DisplayName)
	assert.Equal(t, "hunter22", got.Secret)
	assert.True(t, createdAt.Equal(got.Account.CreatedAt))
}

func TestAccountRepo_Create_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	cred := model.Credential{Account: model.Account{Identifier: "ana@example.com"}, Secret: "first1"}
	require.NoError(t, repo.Create(ctx, cred))

	cred.Secret = "second2"
	err := repo.Create(ctx, cred)
	require.ErrorIs(t, err, driven.ErrDuplicateAccount)

	got, err := repo.Get(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "first1", got.Secret, "duplicate registration must not overwrite the stored secret")
}

func TestAccountRepo_Get_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)

	got, err := repo.Get(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, driven.ErrAccountNotFound)
	assert.Nil(t, got)
}

func TestAccountRepo_IdentifierIsCaseSensitive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, model.Credential{Account: model.Account{Identifier: "Ana@example.com"}, Secret: "secret1"}))

	_, err := repo.Get(ctx, "ana@example.com")
	require.ErrorIs(t, err, driven.ErrAccountNotFound)

	require.NoError(t, repo.Create(ctx, model.Credential{Account: model.Account{Identifier: "ana@example.com"}, Secret: "secret2"}))
}

func TestAccountRepo_ClosedDB(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	require.NoError(t, db.Close())

	_, err := repo.Get(context.Background(), "ana@example.com")
	require.ErrorIs(t, err, driven.ErrStoreUnavailable)
}
