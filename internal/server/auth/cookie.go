package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
)

// CookieSetter delivers a cookie to the client of the current request.
type CookieSetter interface {
	SetCookie(ctx context.Context, c *http.Cookie) error
}

type cookieSetterKey struct{}

// WithCookieSetter attaches the transport's CookieSetter to ctx.
func WithCookieSetter(ctx context.Context, s CookieSetter) context.Context {
	return context.WithValue(ctx, cookieSetterKey{}, s)
}

// CookieSetterFrom returns the setter attached to ctx, if any.
func CookieSetterFrom(ctx context.Context) (CookieSetter, bool) {
	s, ok := ctx.Value(cookieSetterKey{}).(CookieSetter)
	return s, ok
}

// HTTPCookieSetter writes cookies to an http.ResponseWriter.
type HTTPCookieSetter struct {
	W http.ResponseWriter
}

func (s HTTPCookieSetter) SetCookie(_ context.Context, c *http.Cookie) error {
	http.SetCookie(s.W, c)
	return nil
}

// ParseSameSite maps a policy name (lax, strict, none) to http.SameSite.
// An empty policy yields the browser default.
func ParseSameSite(policy string) (http.SameSite, error) {
	switch strings.ToLower(policy) {
	case "":
		return http.SameSiteDefaultMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown samesite policy %q", policy)
	}
}

// NewRefreshCookie builds the refresh token cookie. A zero lifetime makes it
// a session cookie.
func NewRefreshCookie(value string, now time.Time, lifetime time.Duration, sameSite http.SameSite) *http.Cookie {
	c := &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    value,
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: sameSite,
	}
	if lifetime > 0 {
		c.Expires = now.Add(lifetime)
	}
	return c
}

// RefreshTokenFromCookies finds the refresh token among raw Cookie header
// values.
func RefreshTokenFromCookies(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	r := &http.Request{Header: http.Header{"Cookie": values}}
	c, err := r.Cookie(common.RefreshTokenCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
