package users

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	alice, err := repo.Create(ctx, &models.User{UserName: "alice", Email: "a@b.com", Groups: []models.UserGroup{{ID: 1, Name: "Editors", Handle: "editors"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.ID)

	bob, err := repo.Create(ctx, &models.User{ID: 42, UserName: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), bob.ID)

	_, err = repo.Create(ctx, &models.User{UserName: "ALICE"})
	require.ErrorIs(t, err, models.ErrDuplicate)

	got, err := repo.GetUserByLogin(ctx, "A@B.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, []string{"Editors"}, got.GroupNames())

	got, err = repo.GetUserByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)

	_, err = repo.GetUserByLogin(ctx, "")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, 42, at))
	got, err = repo.GetUserByID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.Equal(t, at, *got.LastLoginAt)

	assert.ErrorIs(t, repo.UpdateLastLogin(ctx, 99, at), common.ErrorNotFound)
	_, err = repo.GetUserByID(ctx, 99)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
