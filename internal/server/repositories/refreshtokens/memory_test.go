package refreshtokens

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CreateFindDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository(common.NewFixedClock(now))

	rt := &models.RefreshToken{Token: "tok", UserID: 42, SchemaID: 7, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, rt))
	assert.NotEmpty(t, rt.ID)
	assert.Equal(t, now, rt.CreatedAt)

	require.ErrorIs(t, repo.Create(ctx, &models.RefreshToken{Token: "tok", UserID: 1}), models.ErrDuplicate)

	got, err := repo.Find(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, *rt, *got)

	require.NoError(t, repo.Delete(ctx, "tok"))
	assert.ErrorIs(t, repo.Delete(ctx, "tok"), common.ErrorNotFound)
	_, err = repo.Find(ctx, "tok")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository(common.NewFixedClock(now))

	require.NoError(t, repo.Create(ctx, &models.RefreshToken{Token: "old", UserID: 1, ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{Token: "edge", UserID: 1, ExpiresAt: now}))
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{Token: "fresh", UserID: 1, ExpiresAt: now.Add(time.Second)}))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.Find(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemoryRepository_ConcurrentDeleteSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(common.SystemClock{})
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{Token: "tok", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.Delete(ctx, "tok") == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
