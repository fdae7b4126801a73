// Package refreshtokens declares the server-side repository contract for
// single-use refresh tokens and its PostgreSQL, in-memory and Redis
// implementations.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and redeeming refresh tokens.
type Repository interface {
	// Create stores token and assigns its ID. A token value that is already
	// taken yields a *models.ValidationError wrapping models.ErrDuplicate.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find looks up a refresh token by its opaque token string and returns
	// common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token by its token string and returns
	// common.ErrorNotFound when nothing was removed. Of several concurrent
	// callers deleting the same token exactly one succeeds.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes tokens expiring at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

func validate(token *models.RefreshToken) error {
	switch {
	case token.Token == "":
		return models.NewValidationError("token", "Token cannot be blank.")
	case token.UserID == 0:
		return models.NewValidationError("userId", "User ID cannot be blank.")
	}
	return nil
}
