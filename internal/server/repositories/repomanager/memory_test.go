package repomanager

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/refreshtokens"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryManager_SharesState(t *testing.T) {
	m := NewMemoryRepositoryManager(common.SystemClock{})
	var _ RepositoryManager = m

	require.NoError(t, m.RunMigrations(context.Background(), nil))

	_, err := m.Users(nil).Create(context.Background(), &models.User{UserName: "alice"})
	require.NoError(t, err)

	_, err = m.Users(nil).GetUserByLogin(context.Background(), "alice")
	assert.NoError(t, err, "every handle sees the same data")
	assert.Same(t, m.AccessTokensRepo, m.AccessTokens(nil))
	assert.Same(t, m.RefreshTokensRepo, m.RefreshTokens(nil))
	assert.Same(t, m.SchemasRepo, m.Schemas(nil))
}

func TestWithRedisRefreshTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	base := NewMemoryRepositoryManager(common.SystemClock{})
	rdb := refreshtokens.NewRedisRepository(client, "test:", common.SystemClock{})
	m := &WithRedisRefreshTokens{RepositoryManager: base, Redis: rdb}

	assert.Same(t, rdb, m.RefreshTokens(nil))
	assert.Same(t, base.AccessTokensRepo, m.AccessTokens(nil))

	require.NoError(t, m.RefreshTokens(nil).Create(context.Background(), &models.RefreshToken{
		Token: "tok", UserID: 1, ExpiresAt: time.Now().Add(time.Hour),
	}))
	assert.True(t, mr.Exists("test:refresh_token:tok"))
}
