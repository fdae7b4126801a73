package grpc

import (
	"context"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// SetCookieHeaderName is the response header metadata key carrying cookies.
const SetCookieHeaderName = "set-cookie"

// headerCookieSetter sends cookies as set-cookie response header metadata.
type headerCookieSetter struct{}

func (headerCookieSetter) SetCookie(ctx context.Context, c *http.Cookie) error {
	return grpc.SetHeader(ctx, metadata.Pairs(SetCookieHeaderName, c.String()))
}
