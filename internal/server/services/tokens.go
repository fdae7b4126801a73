package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/dbx"
	"github.com/dmitrijs2005/gqlauth/internal/logging"
	"github.com/dmitrijs2005/gqlauth/internal/server/auth"
	"github.com/dmitrijs2005/gqlauth/internal/server/autherr"
	"github.com/dmitrijs2005/gqlauth/internal/server/config"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/repomanager"
	"github.com/golang-jwt/jwt/v5"
)

// maxIssueAttempts bounds the retry when a freshly generated token value
// collides with a stored one.
const maxIssueAttempts = 3

// TokenPayload is the credential pair handed to the client. Expiries are
// milliseconds since the Unix epoch.
type TokenPayload struct {
	JWT                   string
	JWTExpiresAt          int64
	RefreshToken          string
	RefreshTokenExpiresAt int64
}

// Session is the result of an issuance: who the pair belongs to, which
// schema it grants and the pair itself.
type Session struct {
	User   *models.User
	Schema *models.Schema
	Tokens TokenPayload
}

// TokenService manages the lifecycle of access and refresh tokens:
// issuance, single-use rotation, revocation, resolution and sweeping.
type TokenService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	codecOpts   []auth.CodecOption
	clock       common.Clock
	random      common.RandomFunc
	logger      logging.Logger

	secret           []byte
	issuer           string
	accessLifetime   time.Duration
	refreshLifetime  time.Duration
	sameSite         http.SameSite
	restrictRequests bool
}

type TokenServiceOption func(*TokenService)

func WithClock(c common.Clock) TokenServiceOption {
	return func(s *TokenService) { s.clock = c }
}

func WithRandom(r common.RandomFunc) TokenServiceOption {
	return func(s *TokenService) { s.random = r }
}

// WithCodecOptions registers sign and verify hooks on the service's codec.
func WithCodecOptions(opts ...auth.CodecOption) TokenServiceOption {
	return func(s *TokenService) { s.codecOpts = append(s.codecOpts, opts...) }
}

// NewTokenService builds a TokenService from the server configuration. The
// secret may be empty; issuance then fails with a config error.
func NewTokenService(tx dbx.Transactor, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger, opts ...TokenServiceOption) (*TokenService, error) {
	sameSite, err := auth.ParseSameSite(cfg.SameSitePolicy)
	if err != nil {
		return nil, err
	}

	s := &TokenService{
		tx:               tx,
		repomanager:      m,
		clock:            common.SystemClock{},
		random:           common.RandomString,
		logger:           logger,
		secret:           []byte(cfg.SecretKey),
		issuer:           cfg.Issuer,
		accessLifetime:   cfg.AccessTokenValidityDuration,
		refreshLifetime:  cfg.RefreshTokenValidityDuration,
		sameSite:         sameSite,
		restrictRequests: cfg.RestrictRequests,
	}
	for _, o := range opts {
		o(s)
	}
	s.codec = auth.NewCodec(s.clock, s.codecOpts...)

	return s, nil
}

// Codec exposes the signer so callers can decode issued tokens.
func (s *TokenService) Codec() *auth.Codec { return s.codec }

// Create issues a new access/refresh pair for user in schemaID and sets the
// refresh cookie when the request carries a cookie setter.
func (s *TokenService) Create(ctx context.Context, user *models.User, schemaID int64) (*Session, error) {
	s.sweep(ctx)

	session, err := s.issue(ctx, s.tx.Conn(), user, schemaID)
	if err != nil {
		return nil, err
	}

	if err := s.setRefreshCookie(ctx, session.Tokens.RefreshToken); err != nil {
		return nil, err
	}

	return session, nil
}

// Refresh redeems a refresh token, preferring the cookie value over the
// argument, and issues a replacement pair. The old token is deleted in the
// same transaction as the new pair is created; of two concurrent redemptions
// only one can delete it.
func (s *TokenService) Refresh(ctx context.Context, cookieValue, argument string) (*Session, error) {
	value := cookieValue
	if value == "" {
		value = argument
	}
	if value == "" {
		return nil, invalidRefreshToken(nil)
	}

	s.sweep(ctx)

	db := s.tx.Conn()
	token, err := s.repomanager.RefreshTokens(db).Find(ctx, value)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, invalidRefreshToken(err)
		}
		return nil, fmt.Errorf("refresh token lookup: %w", err)
	}

	if !token.ExpiresAt.After(s.clock.Now()) {
		return nil, invalidRefreshToken(nil)
	}

	user, err := s.repomanager.Users(db).GetUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, autherr.UserNotFound()
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	if token.SchemaID == 0 {
		return nil, autherr.InvalidSchema()
	}

	var session *Session
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, token.Token); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return invalidRefreshToken(err)
			}
			return fmt.Errorf("redeem refresh token: %w", err)
		}

		var err error
		session, err = s.issue(ctx, tx, user, token.SchemaID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.setRefreshCookie(ctx, session.Tokens.RefreshToken); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "refresh token redeemed", "user_id", user.ID, "schema_id", token.SchemaID)

	return session, nil
}

func (s *TokenService) issue(ctx context.Context, db dbx.DBTX, user *models.User, schemaID int64) (*Session, error) {
	if len(s.secret) == 0 {
		return nil, autherr.Config(autherr.MsgInvalidSecretKey)
	}

	schema, err := s.repomanager.Schemas(db).GetSchemaByID(ctx, schemaID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, autherr.InvalidSchema()
		}
		return nil, fmt.Errorf("schema lookup: %w", err)
	}

	now := s.clock.Now()
	accessExpiry := now.Add(s.accessLifetime)

	access, err := s.putAccessToken(ctx, db, &models.AccessToken{
		Name:      models.UserTokenName(user.ID, now),
		Enabled:   true,
		SchemaID:  schemaID,
		ExpiresAt: &accessExpiry,
	})
	if err != nil {
		return nil, err
	}

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
		FullName:    user.FullName,
		Email:       user.Email,
		Groups:      user.GroupNames(),
		Schema:      schema.Name,
		Admin:       user.Admin,
		AccessToken: access.AccessToken,
	}

	signed, err := s.codec.Encode(claims, s.secret)
	if err != nil {
		return nil, err
	}

	refreshExpiry := now.Add(s.refreshRecordLifetime())
	refresh, err := s.putRefreshToken(ctx, db, &models.RefreshToken{
		UserID:    user.ID,
		SchemaID:  schemaID,
		ExpiresAt: refreshExpiry,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "issued token pair", "user_id", user.ID, "schema_id", schemaID, "token_id", access.ID)

	return &Session{
		User:   user,
		Schema: schema,
		Tokens: TokenPayload{
			JWT:                   signed,
			JWTExpiresAt:          accessExpiry.UnixMilli(),
			RefreshToken:          refresh.Token,
			RefreshTokenExpiresAt: refreshExpiry.UnixMilli(),
		},
	}, nil
}

// refreshRecordLifetime is how long the stored refresh token lives. With a
// zero refresh lifetime the cookie is a session cookie and the record
// follows the access token.
func (s *TokenService) refreshRecordLifetime() time.Duration {
	if s.refreshLifetime > 0 {
		return s.refreshLifetime
	}
	return s.accessLifetime
}

func (s *TokenService) putAccessToken(ctx context.Context, db dbx.DBTX, token *models.AccessToken) (*models.AccessToken, error) {
	repo := s.repomanager.AccessTokens(db)

	var err error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token.AccessToken, err = s.random(common.TokenEntropyBytes)
		if err != nil {
			return nil, fmt.Errorf("generate access token: %w", err)
		}

		var stored *models.AccessToken
		stored, err = repo.Put(ctx, token)
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, models.ErrDuplicate) {
			break
		}
	}

	return nil, persistenceError(autherr.CodeForbidden, err)
}

func (s *TokenService) putRefreshToken(ctx context.Context, db dbx.DBTX, token *models.RefreshToken) (*models.RefreshToken, error) {
	repo := s.repomanager.RefreshTokens(db)

	var err error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token.Token, err = s.random(common.TokenEntropyBytes)
		if err != nil {
			return nil, fmt.Errorf("generate refresh token: %w", err)
		}

		if err = repo.Create(ctx, token); err == nil {
			return token, nil
		}
		if !errors.Is(err, models.ErrDuplicate) {
			break
		}
	}

	return nil, persistenceError(autherr.CodeInvalid, err)
}

func persistenceError(code autherr.Code, err error) error {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return autherr.Persistence(code, ve.Fields, err)
	}
	return autherr.Persistence(code, nil, err)
}

func invalidRefreshToken(cause error) error {
	return autherr.InvalidCredential(autherr.CodeInvalid, autherr.MsgInvalidRefreshToken, cause)
}

func (s *TokenService) setRefreshCookie(ctx context.Context, value string) error {
	setter, ok := auth.CookieSetterFrom(ctx)
	if !ok {
		return nil
	}

	cookie := auth.NewRefreshCookie(value, s.clock.Now(), s.refreshLifetime, s.sameSite)
	if err := setter.SetCookie(ctx, cookie); err != nil {
		return fmt.Errorf("set refresh cookie: %w", err)
	}
	return nil
}

// Extract resolves the access token presented in the authorization header
// values.
func (s *TokenService) Extract(ctx context.Context, headers []string) (*models.AccessToken, error) {
	extractor := auth.NewExtractor(s.repomanager.AccessTokens(s.tx.Conn()), s.codec, s.secret, s.clock)
	return extractor.Extract(ctx, headers)
}

// RevokeCurrent deletes the access token with the given id.
func (s *TokenService) RevokeCurrent(ctx context.Context, id string) error {
	if err := s.repomanager.AccessTokens(s.tx.Conn()).DeleteByID(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return autherr.TokenNotFound()
		}
		return fmt.Errorf("revoke access token: %w", err)
	}

	s.logger.Info(ctx, "revoked access token", "token_id", id)
	return nil
}

// RevokeAllForUser deletes every access token issued to userID and returns
// how many were removed.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID int64) (int, error) {
	repo := s.repomanager.AccessTokens(s.tx.Conn())

	tokens, err := repo.FindByNamePattern(ctx, models.UserTokenFragment(userID))
	if err != nil {
		return 0, fmt.Errorf("find user tokens: %w", err)
	}
	if len(tokens) == 0 {
		return 0, autherr.TokenNotFound()
	}

	deleted := 0
	for _, t := range tokens {
		if err := repo.DeleteByID(ctx, t.ID); err != nil {
			// already gone
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			return deleted, fmt.Errorf("revoke access token: %w", err)
		}
		deleted++
	}

	s.logger.Info(ctx, "revoked user tokens", "user_id", userID, "count", deleted)
	return deleted, nil
}

// ResolveUserID extracts the caller's access token and reads the user id
// from its name. The signed claims are not consulted.
func (s *TokenService) ResolveUserID(ctx context.Context, headers []string) (int64, error) {
	token, err := s.Extract(ctx, headers)
	if err != nil {
		return 0, err
	}

	id, ok := token.UserID()
	if !ok {
		return 0, autherr.InvalidCredential(autherr.CodeForbidden, autherr.MsgInvalidHeader, nil)
	}
	return id, nil
}

// ResolveUserFromToken returns the user owning the caller's access token.
func (s *TokenService) ResolveUserFromToken(ctx context.Context, headers []string) (*models.User, error) {
	id, err := s.ResolveUserID(ctx, headers)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.tx.Conn()).GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, autherr.UserNotFound()
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	return user, nil
}

// Sweep deletes expired user access tokens and expired refresh tokens.
// Access tokens not named after a user are left alone.
func (s *TokenService) Sweep(ctx context.Context) error {
	db := s.tx.Conn()
	now := s.clock.Now()

	access, errAccess := s.repomanager.AccessTokens(db).DeleteExpired(ctx, now, common.UserTokenNamePrefix)
	refresh, errRefresh := s.repomanager.RefreshTokens(db).DeleteExpired(ctx, now)
	if err := errors.Join(errAccess, errRefresh); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	s.logger.Debug(ctx, "swept expired tokens", "access_tokens", access, "refresh_tokens", refresh)
	return nil
}

// sweep is the opportunistic variant run before issuance; a failed sweep
// does not block the caller.
func (s *TokenService) sweep(ctx context.Context) {
	if err := s.Sweep(ctx); err != nil {
		s.logger.Warn(ctx, "token sweep failed", "error", err)
	}
}

// RewriteAuthorization normalises the authorization header to
// "Bearer <access token>" when request restriction is enabled. Any failure
// leaves the header as it was.
func (s *TokenService) RewriteAuthorization(ctx context.Context, headers []string) (string, bool) {
	if !s.restrictRequests {
		return "", false
	}

	token, err := s.Extract(ctx, headers)
	if err != nil {
		s.logger.Debug(ctx, "authorization header left untouched", "error", err)
		return "", false
	}

	return "Bearer " + token.AccessToken, true
}
