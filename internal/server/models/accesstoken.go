// Package models holds the records exchanged between the token services and
// their repositories.
package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
)

// AccessToken is an opaque, server-tracked API token. Tokens issued to users
// are named "user-{userID}-{unixMicro}" and the user id is parsed back out of
// the name.
type AccessToken struct {
	ID          string
	Name        string
	AccessToken string
	Enabled     bool
	// SchemaID is 0 once the schema has been deleted.
	SchemaID int64
	// ExpiresAt is nil for tokens the server never expires.
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// UserTokenName builds the name of an access token issued to userID at t.
func UserTokenName(userID int64, t time.Time) string {
	return common.UserTokenNamePrefix + strconv.FormatInt(userID, 10) + "-" + strconv.FormatInt(t.UnixMicro(), 10)
}

// UserTokenFragment is the name fragment shared by every token of userID.
func UserTokenFragment(userID int64) string {
	return common.UserTokenNamePrefix + strconv.FormatInt(userID, 10) + "-"
}

// UserID parses the owning user id out of the token name. It reports false
// for tokens that do not follow the user naming convention.
func (t *AccessToken) UserID() (int64, bool) {
	parts := strings.Split(t.Name, "-")
	if len(parts) < 2 || parts[0]+"-" != common.UserTokenNamePrefix {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
