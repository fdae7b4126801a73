package accesstokens

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository(common.NewFixedClock(now))

	expiry := now.Add(time.Hour)
	saved, err := repo.Put(ctx, &models.AccessToken{Name: "user-42-1000", AccessToken: "v1", Enabled: true, SchemaID: 7, ExpiresAt: &expiry})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	_, err = repo.Put(ctx, &models.AccessToken{Name: "user-42-2000", AccessToken: "v1"})
	require.ErrorIs(t, err, models.ErrDuplicate)

	got, err := repo.GetByAccessToken(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	got.Enabled = false
	again, _ := repo.GetByAccessToken(ctx, "v1")
	assert.True(t, again.Enabled, "returned records are copies")

	require.NoError(t, repo.SetEnabled(saved.ID, false))
	again, _ = repo.GetByAccessToken(ctx, "v1")
	assert.False(t, again.Enabled)

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))
	assert.ErrorIs(t, repo.DeleteByID(ctx, saved.ID), common.ErrorNotFound)
	_, err = repo.GetByAccessToken(ctx, "v1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository(common.NewFixedClock(now))

	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	put := func(name, value string, exp *time.Time) {
		_, err := repo.Put(ctx, &models.AccessToken{Name: name, AccessToken: value, ExpiresAt: exp})
		require.NoError(t, err)
	}
	put("user-1-1", "a", &past)
	put("user-1-2", "b", &now)
	put("user-1-3", "c", &future)
	put("service", "d", &past)
	put("user-1-4", "e", nil)

	n, err := repo.DeleteExpired(ctx, now, "user-")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, v := range []string{"c", "d", "e"} {
		_, err := repo.GetByAccessToken(ctx, v)
		assert.NoError(t, err, v)
	}
}

func TestMemoryRepository_FindByNamePattern(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(common.NewFixedClock(time.Now()))

	for i, name := range []string{"user-42-1000", "user-42-2000", "user-7-3000", "user-4-4000"} {
		_, err := repo.Put(ctx, &models.AccessToken{Name: name, AccessToken: string(rune('a' + i))})
		require.NoError(t, err)
	}

	got, err := repo.FindByNamePattern(ctx, models.UserTokenFragment(42))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "user-42-1000", got[0].Name)
	assert.Equal(t, "user-42-2000", got[1].Name)

	got, err = repo.FindByNamePattern(ctx, models.UserTokenFragment(4))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "user-4-4000", got[0].Name)
}
