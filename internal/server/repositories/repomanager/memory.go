package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/dbx"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/accesstokens"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/schemas"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out the same in-memory repositories for
// every handle. Pair it with dbx.NoTx.
type MemoryRepositoryManager struct {
	UsersRepo         *users.MemoryRepository
	SchemasRepo       *schemas.MemoryRepository
	AccessTokensRepo  *accesstokens.MemoryRepository
	RefreshTokensRepo *refreshtokens.MemoryRepository
}

func NewMemoryRepositoryManager(clock common.Clock) *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		UsersRepo:         users.NewMemoryRepository(),
		SchemasRepo:       schemas.NewMemoryRepository(),
		AccessTokensRepo:  accesstokens.NewMemoryRepository(clock),
		RefreshTokensRepo: refreshtokens.NewMemoryRepository(clock),
	}
}

// RunMigrations is a no-op.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.UsersRepo }

func (m *MemoryRepositoryManager) Schemas(dbx.DBTX) schemas.Repository { return m.SchemasRepo }

func (m *MemoryRepositoryManager) AccessTokens(dbx.DBTX) accesstokens.Repository {
	return m.AccessTokensRepo
}

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.RefreshTokensRepo
}
