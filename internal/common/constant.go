// Package common contains shared constants, sentinel errors and small
// time/randomness helpers used across the gqlauth server.
package common

const (
	// AuthorizationHeaderName is the request header (and gRPC metadata key)
	// carrying credentials.
	AuthorizationHeaderName = "authorization"

	// CookieHeaderName is the request header carrying cookies.
	CookieHeaderName = "cookie"

	// RefreshTokenCookieName is the cookie used to carry refresh tokens.
	RefreshTokenCookieName = "gql_refreshToken"

	// UserTokenNamePrefix prefixes the name of every access token issued to a user.
	UserTokenNamePrefix = "user-"

	// TokenEntropyBytes is the number of random bytes behind access and refresh token values.
	TokenEntropyBytes = 32
)
