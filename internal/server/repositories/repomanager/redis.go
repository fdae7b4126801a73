package repomanager

import (
	"github.com/dmitrijs2005/gqlauth/internal/dbx"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/refreshtokens"
)

// WithRedisRefreshTokens keeps refresh tokens in Redis while every other
// repository comes from base. The Redis store ignores the transaction
// handle; its DEL count provides the single-use guarantee.
type WithRedisRefreshTokens struct {
	RepositoryManager
	Redis *refreshtokens.RedisRepository
}

func (m *WithRedisRefreshTokens) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.Redis
}
