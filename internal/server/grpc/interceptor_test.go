package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/logging"
	"github.com/dmitrijs2005/gqlauth/internal/server/auth"
	"github.com/dmitrijs2005/gqlauth/internal/server/autherr"
	"github.com/dmitrijs2005/gqlauth/internal/server/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestInterceptor_HealthIsExempt(t *testing.T) {
	s := NewGRPCServer("", logging.Nop(), nil, nil)

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	handlerCalled := false

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.authInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled || resp != "ok" {
		t.Fatalf("handler not reached: %v", resp)
	}
}

func TestInterceptor_CollectsHeaders(t *testing.T) {
	s := newTestServer(t, nil)

	md := metadata.Pairs(
		common.AuthorizationHeaderName, "Bearer abc",
		common.CookieHeaderName, "gql_refreshToken=xyz",
	)
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(MethodViewer)}

	var seen request
	var hasSetter bool
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = requestFrom(ctx)
		_, hasSetter = auth.CookieSetterFrom(ctx)
		return nil, nil
	}

	if _, err := s.authInterceptor(ctx, nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen.authorization) != 1 || seen.authorization[0] != "Bearer abc" {
		t.Fatalf("authorization = %v", seen.authorization)
	}
	if len(seen.cookies) != 1 || seen.cookies[0] != "gql_refreshToken=xyz" {
		t.Fatalf("cookies = %v", seen.cookies)
	}
	if !hasSetter {
		t.Fatal("cookie setter missing from context")
	}
}

func TestInterceptor_RewritesAuthorization(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.RestrictRequests = true })
	ctx := context.Background()

	payload, err := s.users.Authenticate(ctx, "ann", "pa55word")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	claims, err := s.tokens.Codec().Decode(payload.JWT, []byte("s3cret"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	run := func(header string) []string {
		in := metadata.NewIncomingContext(ctx, metadata.Pairs(common.AuthorizationHeaderName, header))
		var seen []string
		_, err := s.authInterceptor(in, nil, &grpc.UnaryServerInfo{FullMethod: FullMethod(MethodViewer)},
			func(ctx context.Context, req interface{}) (interface{}, error) {
				seen = requestFrom(ctx).authorization
				return nil, nil
			})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return seen
	}

	if got := run("JWT " + payload.JWT); len(got) != 1 || got[0] != "Bearer "+claims.AccessToken {
		t.Fatalf("rewritten header = %v", got)
	}
	if got := run("Bearer unknown"); len(got) != 1 || got[0] != "Bearer unknown" {
		t.Fatalf("failed rewrite must leave header untouched, got %v", got)
	}
}

func TestInterceptor_MapsErrors(t *testing.T) {
	s := newTestServer(t, nil)
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(MethodLogin)}

	_, err := s.authInterceptor(context.Background(), &structpb.Struct{}, info,
		func(ctx context.Context, req interface{}) (interface{}, error) {
			return nil, autherr.TokenNotFound()
		})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	_, err = s.authInterceptor(context.Background(), &structpb.Struct{}, info,
		func(ctx context.Context, req interface{}) (interface{}, error) {
			return nil, errors.New("connection refused")
		})
	if status.Code(err) != codes.Internal || status.Convert(err).Message() != "internal error" {
		t.Fatalf("expected opaque Internal, got %v", err)
	}
}
