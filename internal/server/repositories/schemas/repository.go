// Package schemas resolves schema ids to the named permission scopes tokens
// are issued for.
package schemas

import (
	"context"

	"github.com/dmitrijs2005/gqlauth/internal/server/models"
)

type Repository interface {
	// GetSchemaByID returns common.ErrorNotFound for unknown ids.
	GetSchemaByID(ctx context.Context, id int64) (*models.Schema, error)
}
