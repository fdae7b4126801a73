package grpc

import (
	"context"

	"github.com/dmitrijs2005/gqlauth/internal/server/auth"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/dmitrijs2005/gqlauth/internal/server/services"
	"google.golang.org/protobuf/types/known/structpb"
)

// Register creates a user and answers with its first token pair.
func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	s.logger.Info(ctx, "Register request")

	user := &models.User{
		UserName: stringField(req, "username"),
		Email:    stringField(req, "email"),
		FullName: stringField(req, "fullName"),
	}

	payload, err := s.users.SignUp(ctx, user, stringField(req, "password"))
	if err != nil {
		return nil, err
	}

	return authPayloadStruct(payload)
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	s.logger.Info(ctx, "Login request")

	payload, err := s.users.Authenticate(ctx, stringField(req, "login"), stringField(req, "password"))
	if err != nil {
		return nil, err
	}

	return authPayloadStruct(payload)
}

// RefreshToken redeems the refresh cookie, or the refreshToken argument when
// no cookie was sent.
func (s *GRPCServer) RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	cookie, _ := auth.RefreshTokenFromCookies(requestFrom(ctx).cookies)

	payload, err := s.users.RefreshToken(ctx, cookie, stringField(req, "refreshToken"))
	if err != nil {
		return nil, err
	}

	return authPayloadStruct(payload)
}

func (s *GRPCServer) Viewer(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	user, err := s.users.Viewer(ctx, requestFrom(ctx).authorization)
	if err != nil {
		return nil, err
	}

	return structpb.NewStruct(userFields(user))
}

func (s *GRPCServer) DeleteCurrentToken(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	if err := s.users.DeleteCurrentToken(ctx, requestFrom(ctx).authorization); err != nil {
		return nil, err
	}

	return structpb.NewStruct(map[string]any{"deleted": true})
}

func (s *GRPCServer) DeleteAllTokens(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	n, err := s.users.DeleteAllTokens(ctx, requestFrom(ctx).authorization)
	if err != nil {
		return nil, err
	}

	return structpb.NewStruct(map[string]any{"deleted": true, "count": n})
}

func stringField(req *structpb.Struct, name string) string {
	v, ok := req.GetFields()[name]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func userFields(u *models.User) map[string]any {
	groups := make([]any, 0, len(u.Groups))
	for _, name := range u.GroupNames() {
		groups = append(groups, name)
	}
	return map[string]any{
		"id":       u.ID,
		"username": u.UserName,
		"email":    u.Email,
		"fullName": u.FullName,
		"admin":    u.Admin,
		"groups":   groups,
	}
}

func authPayloadStruct(p *services.AuthPayload) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"user":                  userFields(p.User),
		"schema":                p.Schema,
		"jwt":                   p.JWT,
		"jwtExpiresAt":          p.JWTExpiresAt,
		"refreshToken":          p.RefreshToken,
		"refreshTokenExpiresAt": p.RefreshTokenExpiresAt,
	})
}
