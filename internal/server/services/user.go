// Package services contains server-side business logic: TokenService owns
// the token lifecycle and UserService is the authentication facade the
// transport calls into.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/dbx"
	"github.com/dmitrijs2005/gqlauth/internal/logging"
	"github.com/dmitrijs2005/gqlauth/internal/server/autherr"
	"github.com/dmitrijs2005/gqlauth/internal/server/config"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// AuthPayload is returned by login and refresh. Expiries are milliseconds
// since the Unix epoch.
type AuthPayload struct {
	User                  *models.User
	Schema                string
	JWT                   string
	JWTExpiresAt          int64
	RefreshToken          string
	RefreshTokenExpiresAt int64
}

// UserService provides authentication-related operations:
// - Register: create users
// - SignUp: create a user and issue its first token pair
// - Authenticate: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens
// - Viewer / DeleteCurrentToken / DeleteAllTokens: act on the caller's token
type UserService struct {
	tx              dbx.Transactor
	repomanager     repomanager.RepositoryManager
	tokens          *TokenService
	logger          logging.Logger
	clock           common.Clock
	permissionType  string
	schemaID        int64
	granularSchemas map[string]int64
}

// NewUserService constructs a UserService using repositories, the token
// service and server config.
func NewUserService(tx dbx.Transactor, m repomanager.RepositoryManager, tokens *TokenService, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		tx:              tx,
		repomanager:     m,
		tokens:          tokens,
		logger:          logger,
		clock:           tokens.clock,
		permissionType:  cfg.PermissionType,
		schemaID:        cfg.SchemaID,
		granularSchemas: cfg.GranularSchemas,
	}
}

// Register creates a user with a bcrypt hash of password.
func (s *UserService) Register(ctx context.Context, user *models.User, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	u, err := s.repomanager.Users(s.tx.Conn()).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// SignUp registers user and logs it straight in. Email and password are
// required; an empty username falls back to the email. The schema is checked
// before the user is created so a misconfigured server creates nobody.
func (s *UserService) SignUp(ctx context.Context, user *models.User, password string) (*AuthPayload, error) {
	fields := map[string][]string{}
	if user.Email == "" {
		fields["email"] = []string{"email cannot be blank"}
	}
	if password == "" {
		fields["password"] = []string{"password cannot be blank"}
	}
	if len(fields) > 0 {
		return nil, autherr.InvalidUser(fields, nil)
	}
	if user.UserName == "" {
		user.UserName = user.Email
	}

	schemaID := s.schemaFor(user)
	if schemaID == 0 {
		return nil, autherr.InvalidSchema()
	}

	u, err := s.Register(ctx, user, password)
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return nil, autherr.InvalidUser(ve.Fields, err)
		}
		return nil, err
	}

	session, err := s.tokens.Create(ctx, u, schemaID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID, "schema_id", schemaID)
	return newAuthPayload(session), nil
}

// dummyHash is compared against when the login is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("gqlauth"), bcrypt.MinCost)

// Authenticate checks login (username or email) and password and issues a
// token pair for the user's schema.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*AuthPayload, error) {
	users := s.repomanager.Users(s.tx.Conn())

	user, err := users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, invalidLogin()
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalidLogin()
	}

	schemaID := s.schemaFor(user)
	if schemaID == 0 {
		return nil, autherr.InvalidSchema()
	}

	if err := users.UpdateLastLogin(ctx, user.ID, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}

	session, err := s.tokens.Create(ctx, user, schemaID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID, "schema_id", schemaID)
	return newAuthPayload(session), nil
}

// schemaFor picks the schema a login is issued for. With per-group
// permissions the user's first group decides; users without groups get the
// global schema.
func (s *UserService) schemaFor(user *models.User) int64 {
	if s.permissionType != config.PermissionMultiple || len(user.Groups) == 0 {
		return s.schemaID
	}
	return s.granularSchemas[user.Groups[0].Handle]
}

// RefreshToken redeems the refresh token from the cookie or, failing that,
// from argument.
func (s *UserService) RefreshToken(ctx context.Context, cookieValue, argument string) (*AuthPayload, error) {
	session, err := s.tokens.Refresh(ctx, cookieValue, argument)
	if err != nil {
		return nil, err
	}
	return newAuthPayload(session), nil
}

// Viewer returns the user behind the authorization headers.
func (s *UserService) Viewer(ctx context.Context, headers []string) (*models.User, error) {
	return s.tokens.ResolveUserFromToken(ctx, headers)
}

// DeleteCurrentToken revokes the access token the request was made with.
func (s *UserService) DeleteCurrentToken(ctx context.Context, headers []string) error {
	token, err := s.tokens.Extract(ctx, headers)
	if err != nil {
		return err
	}
	return s.tokens.RevokeCurrent(ctx, token.ID)
}

// DeleteAllTokens revokes every access token of the caller and returns the
// number removed.
func (s *UserService) DeleteAllTokens(ctx context.Context, headers []string) (int, error) {
	userID, err := s.tokens.ResolveUserID(ctx, headers)
	if err != nil {
		return 0, err
	}
	return s.tokens.RevokeAllForUser(ctx, userID)
}

func invalidLogin() error {
	return autherr.InvalidCredential(autherr.CodeInvalid, autherr.MsgInvalidLogin, nil)
}

func newAuthPayload(s *Session) *AuthPayload {
	return &AuthPayload{
		User:                  s.User,
		Schema:                s.Schema.Name,
		JWT:                   s.Tokens.JWT,
		JWTExpiresAt:          s.Tokens.JWTExpiresAt,
		RefreshToken:          s.Tokens.RefreshToken,
		RefreshTokenExpiresAt: s.Tokens.RefreshTokenExpiresAt,
	}
}
