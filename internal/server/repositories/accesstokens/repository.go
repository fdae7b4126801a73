// Package accesstokens declares the store of opaque access tokens and its
// PostgreSQL and in-memory implementations.
package accesstokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/server/models"
)

// Repository persists opaque access tokens.
type Repository interface {
	// Put stores a new token and returns it with ID and CreatedAt assigned.
	// A token value that is already taken yields a *models.ValidationError
	// wrapping models.ErrDuplicate.
	Put(ctx context.Context, token *models.AccessToken) (*models.AccessToken, error)

	// GetByAccessToken returns common.ErrorNotFound when no token has value.
	GetByAccessToken(ctx context.Context, value string) (*models.AccessToken, error)

	// DeleteByID returns common.ErrorNotFound when nothing was deleted.
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired removes tokens expiring at or before now whose name
	// starts with namePrefix.
	DeleteExpired(ctx context.Context, now time.Time, namePrefix string) (int64, error)

	// FindByNamePattern lists tokens whose name contains fragment.
	FindByNamePattern(ctx context.Context, fragment string) ([]*models.AccessToken, error)
}

func validate(token *models.AccessToken) error {
	switch {
	case token.Name == "":
		return models.NewValidationError("name", "Name cannot be blank.")
	case token.AccessToken == "":
		return models.NewValidationError("accessToken", "Access Token cannot be blank.")
	}
	return nil
}
