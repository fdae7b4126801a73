// Package repomanager vends repository implementations for a storage
// backend and runs its schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gqlauth/internal/dbx"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/accesstokens"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/schemas"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/users"
)

// RepositoryManager binds repositories to a DBTX so services can use the
// same code inside and outside a transaction. Backends that do not speak
// SQL ignore the handle.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Schemas(db dbx.DBTX) schemas.Repository
	AccessTokens(db dbx.DBTX) accesstokens.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
