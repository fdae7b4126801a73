// Package users is the user directory consumed by the token services.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByID and GetUserByLogin return common.ErrorNotFound for unknown users.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// GetUserByLogin matches login against the username or the email.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}
