package server

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/config"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StorageBackend = config.BackendMemory
	c.SecretKey = "s3cret"
	return c
}

func TestNewApp_Memory(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)
	assert.NotNil(t, app.tokenService)
	assert.NotNil(t, app.userService)
	assert.Nil(t, app.db)
	assert.NoError(t, app.close())
}

func TestNewApp_MemoryIssuesTokens(t *testing.T) {
	c := memoryConfig()
	c.SchemaID = 1
	c.PermissionType = config.PermissionMultiple
	c.GranularSchemas = map[string]int64{"editors": 2}

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.close() })

	ctx := context.Background()
	reg, err := app.userService.SignUp(ctx, &models.User{UserName: "carol", Email: "c@d.com"}, "s3cure")
	require.NoError(t, err)
	assert.Equal(t, "Public Schema", reg.Schema)

	p, err := app.userService.Authenticate(ctx, "carol", "s3cure")
	require.NoError(t, err)
	assert.NotEmpty(t, p.JWT)
	assert.NotEmpty(t, p.RefreshToken)

	u, err := app.userService.Viewer(ctx, []string{"JWT " + p.JWT})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, u.ID)
}

func TestSeedSchemas(t *testing.T) {
	c := memoryConfig()
	c.SchemaID = 1
	c.GranularSchemas = map[string]int64{"editors": 2, "all": 1}

	m := repomanager.NewMemoryRepositoryManager(common.SystemClock{})
	seedSchemas(m, c)

	ctx := context.Background()
	s, err := m.SchemasRepo.GetSchemaByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Public Schema", s.Name)

	s, err = m.SchemasRepo.GetSchemaByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "editors", s.Name)
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := memoryConfig()
	c.StorageBackend = "cassandra"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestNewApp_RedisRefreshTokens(t *testing.T) {
	mr := miniredis.RunT(t)

	c := memoryConfig()
	c.RedisAddr = mr.Addr()

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	require.NotNil(t, app.redis)
	assert.NoError(t, app.close())
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	c := memoryConfig()
	c.RedisAddr = addr

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}
