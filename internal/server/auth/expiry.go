package auth

import (
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/server/autherr"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
)

func isExpired(expiry, now time.Time) bool {
	return expiry.Unix() < now.Unix()
}

// ValidateNotExpired rejects tokens whose expiry lies strictly before now.
// A token expiring in the current second is still valid; a token without
// expiry never expires.
func ValidateNotExpired(token *models.AccessToken, now time.Time) error {
	if token.ExpiresAt == nil {
		return nil
	}
	if isExpired(*token.ExpiresAt, now) {
		return autherr.ExpiredCredential()
	}
	return nil
}
