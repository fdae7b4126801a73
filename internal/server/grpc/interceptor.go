package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/auth"
	"github.com/dmitrijs2005/gqlauth/internal/server/autherr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

type ctxKey string

const requestKey ctxKey = "request"

// request holds the credential carrying headers of the current call.
type request struct {
	authorization []string
	cookies       []string
}

func requestFrom(ctx context.Context) request {
	r, _ := ctx.Value(requestKey).(request)
	return r
}

// authInterceptor collects the authorization and cookie metadata, applies
// the optional header rewrite, lets handlers set the refresh cookie and maps
// errors to statuses. Authentication itself is left to each operation.
func (s *GRPCServer) authInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
		return handler(ctx, req)
	}

	md, _ := metadata.FromIncomingContext(ctx)
	headers := md.Get(common.AuthorizationHeaderName)

	if rewritten, ok := s.tokens.RewriteAuthorization(ctx, headers); ok {
		headers = []string{rewritten}
	}

	ctx = context.WithValue(ctx, requestKey, request{
		authorization: headers,
		cookies:       md.Get(common.CookieHeaderName),
	})
	ctx = auth.WithCookieSetter(ctx, headerCookieSetter{})

	resp, err := handler(ctx, req)
	if err != nil {
		if autherr.ClassOf(err) == autherr.ClassStorage {
			s.logger.Error(ctx, "request failed", "method", info.FullMethod, "error", err)
		} else {
			s.logger.Debug(ctx, "request rejected", "method", info.FullMethod, "kind", autherr.KindOf(err))
		}
		return nil, toStatus(err)
	}

	return resp, nil
}
