package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	servergrpc "github.com/dmitrijs2005/gqlauth/internal/server/grpc"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Tokens is the credential pair issued by Login and RefreshToken.
// Both expiry values are unix milliseconds.
type Tokens struct {
	JWT                   string
	JWTExpiresAt          int64
	RefreshToken          string
	RefreshTokenExpiresAt int64
}

type User struct {
	ID       int64
	UserName string
	Email    string
	FullName string
	Admin    bool
	Groups   []string
}

// AuthResult is the answer to Login and RefreshToken.
type AuthResult struct {
	User   User
	Schema string
	Tokens Tokens
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	health      healthpb.HealthClient
	now         func() time.Time

	mu        sync.Mutex
	tokens    Tokens
	onRefresh func(*AuthResult)
}

// NewGRPCClient dials endpointURL without transport security. Extra dial
// options are appended, which tests use to plug in an in-memory listener.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, now: time.Now}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.refreshInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.health = healthpb.NewHealthClient(conn)
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Tokens() Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

// SetTokens installs a previously saved token pair.
func (c *GRPCClient) SetTokens(t Tokens) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = t
}

// OnRefresh registers fn to be called after the interceptor rotated tokens.
func (c *GRPCClient) OnRefresh(fn func(*AuthResult)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

func (c *GRPCClient) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	return c.signIn(ctx, servergrpc.MethodLogin, map[string]any{"login": login, "password": password})
}

// Register creates an account and keeps the token pair it was issued.
// username may be empty, the server then uses the email.
func (c *GRPCClient) Register(ctx context.Context, email, username, password string) (*AuthResult, error) {
	return c.signIn(ctx, servergrpc.MethodRegister, map[string]any{
		"email":    email,
		"username": username,
		"password": password,
	})
}

func (c *GRPCClient) signIn(ctx context.Context, method string, fields map[string]any) (*AuthResult, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	resp := new(structpb.Struct)
	var header metadata.MD
	if err := c.conn.Invoke(ctx, servergrpc.FullMethod(method), req, resp, grpc.Header(&header)); err != nil {
		return nil, mapError(err)
	}

	res := authResult(resp, header)
	c.SetTokens(res.Tokens)
	return res, nil
}

// RefreshToken redeems the current refresh token for a new pair.
func (c *GRPCClient) RefreshToken(ctx context.Context) (*AuthResult, error) {
	refresh := c.Tokens().RefreshToken
	if refresh == "" {
		return nil, ErrNotLoggedIn
	}

	res, err := c.refresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	c.SetTokens(res.Tokens)
	return res, nil
}

func (c *GRPCClient) refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	cookie := (&http.Cookie{Name: common.RefreshTokenCookieName, Value: refreshToken}).String()
	ctx = metadata.AppendToOutgoingContext(ctx, common.CookieHeaderName, cookie)

	resp := new(structpb.Struct)
	var header metadata.MD
	err := c.conn.Invoke(ctx, servergrpc.FullMethod(servergrpc.MethodRefreshToken), &structpb.Struct{}, resp, grpc.Header(&header))
	if err != nil {
		return nil, mapError(err)
	}

	return authResult(resp, header), nil
}

func (c *GRPCClient) Viewer(ctx context.Context) (*User, error) {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, servergrpc.FullMethod(servergrpc.MethodViewer), &structpb.Struct{}, resp); err != nil {
		return nil, mapError(err)
	}
	u := userFrom(resp)
	return &u, nil
}

// Logout revokes the current access token and forgets the local pair.
func (c *GRPCClient) Logout(ctx context.Context) error {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, servergrpc.FullMethod(servergrpc.MethodDeleteCurrentToken), &structpb.Struct{}, resp); err != nil {
		return mapError(err)
	}
	c.SetTokens(Tokens{})
	return nil
}

// LogoutAll revokes every access token of the current user and reports how
// many were deleted.
func (c *GRPCClient) LogoutAll(ctx context.Context) (int, error) {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, servergrpc.FullMethod(servergrpc.MethodDeleteAllTokens), &structpb.Struct{}, resp); err != nil {
		return 0, mapError(err)
	}
	c.SetTokens(Tokens{})
	return int(numberField(resp, "count")), nil
}

// Ping asks the health service whether the auth service is serving.
func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: servergrpc.AuthServiceName})
	if err != nil {
		return mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func withJWT(ctx context.Context, jwt string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AuthorizationHeaderName)
	if jwt != "" {
		md.Set(common.AuthorizationHeaderName, "JWT "+jwt)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

// refreshInterceptor attaches the JWT and rotates the token pair once when
// the JWT has expired. Login, register, refresh and health calls pass through
// untouched.
func (c *GRPCClient) refreshInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if method == servergrpc.FullMethod(servergrpc.MethodLogin) ||
		method == servergrpc.FullMethod(servergrpc.MethodRegister) ||
		method == servergrpc.FullMethod(servergrpc.MethodRefreshToken) ||
		strings.HasPrefix(method, "/grpc.health.v1.Health/") {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	tokens := c.Tokens()

	if tokens.RefreshToken != "" && tokens.JWTExpiresAt > 0 && c.now().UnixMilli() >= tokens.JWTExpiresAt {
		if rotated, err := c.rotate(ctx, tokens.RefreshToken); err == nil {
			tokens = rotated
		}
	}

	err := invoker(withJWT(ctx, tokens.JWT), method, req, reply, cc, opts...)
	if err == nil || !isExpired(err) || tokens.RefreshToken == "" {
		return err
	}

	rotated, rerr := c.rotate(ctx, tokens.RefreshToken)
	if rerr != nil {
		return err
	}

	return invoker(withJWT(ctx, rotated.JWT), method, req, reply, cc, opts...)
}

func (c *GRPCClient) rotate(ctx context.Context, refreshToken string) (Tokens, error) {
	res, err := c.refresh(ctx, refreshToken)
	if err != nil {
		return Tokens{}, err
	}

	c.mu.Lock()
	c.tokens = res.Tokens
	fn := c.onRefresh
	c.mu.Unlock()

	if fn != nil {
		fn(res)
	}
	return res.Tokens, nil
}

// isExpired reports whether err is the server's expired-credential status.
func isExpired(err error) bool {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated {
		return false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetMetadata()["kind"] == "expired_credential" {
			return true
		}
	}
	return false
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.InvalidArgument, codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

// authResult reads the payload; the rotated refresh token is taken from the
// set-cookie header when present since that is where the server puts it.
func authResult(resp *structpb.Struct, header metadata.MD) *AuthResult {
	res := &AuthResult{
		Schema: stringField(resp, "schema"),
		Tokens: Tokens{
			JWT:                   stringField(resp, "jwt"),
			JWTExpiresAt:          int64(numberField(resp, "jwtExpiresAt")),
			RefreshToken:          stringField(resp, "refreshToken"),
			RefreshTokenExpiresAt: int64(numberField(resp, "refreshTokenExpiresAt")),
		},
	}

	if u := resp.GetFields()["user"].GetStructValue(); u != nil {
		res.User = userFrom(u)
	}

	for _, line := range header.Get(servergrpc.SetCookieHeaderName) {
		c, err := http.ParseSetCookie(line)
		if err == nil && c.Name == common.RefreshTokenCookieName && c.Value != "" {
			res.Tokens.RefreshToken = c.Value
		}
	}

	return res
}

func userFrom(s *structpb.Struct) User {
	u := User{
		ID:       int64(numberField(s, "id")),
		UserName: stringField(s, "username"),
		Email:    stringField(s, "email"),
		FullName: stringField(s, "fullName"),
		Admin:    s.GetFields()["admin"].GetBoolValue(),
	}
	for _, g := range s.GetFields()["groups"].GetListValue().GetValues() {
		u.Groups = append(u.Groups, g.GetStringValue())
	}
	return u
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func numberField(s *structpb.Struct, name string) float64 {
	return s.GetFields()[name].GetNumberValue()
}
