package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/autherr"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
)

var (
	bearerScheme = regexp.MustCompile(`(?i)^Bearer\s+(.+)$`)
	jwtScheme    = regexp.MustCompile(`(?i)^JWT\s+(.+)$`)
)

// AccessTokenLookup finds an access token by its value, returning
// common.ErrorNotFound when there is none.
type AccessTokenLookup interface {
	GetByAccessToken(ctx context.Context, value string) (*models.AccessToken, error)
}

// Extractor resolves the access token behind an authorization header.
type Extractor struct {
	tokens AccessTokenLookup
	codec  *Codec
	secret []byte
	clock  common.Clock
}

func NewExtractor(tokens AccessTokenLookup, codec *Codec, secret []byte, clock common.Clock) *Extractor {
	return &Extractor{tokens: tokens, codec: codec, secret: secret, clock: clock}
}

// Extract scans the header values in order. The first segment that matches
// "Bearer <token>" or "JWT <token>" decides the outcome; later segments are
// never consulted, even when resolution of the first match fails.
func (e *Extractor) Extract(ctx context.Context, headers []string) (*models.AccessToken, error) {
	for _, header := range headers {
		for _, segment := range strings.Split(header, ",") {
			segment = strings.TrimSpace(segment)

			if m := bearerScheme.FindStringSubmatch(segment); m != nil {
				return e.resolve(ctx, m[1])
			}

			if m := jwtScheme.FindStringSubmatch(segment); m != nil {
				claims, err := e.codec.Decode(m[1], e.secret)
				if err != nil {
					return nil, decodeFailure(err)
				}
				return e.resolve(ctx, claims.AccessToken)
			}
		}
	}

	return nil, autherr.MissingCredential()
}

func (e *Extractor) resolve(ctx context.Context, value string) (*models.AccessToken, error) {
	if value == "" {
		return nil, autherr.InvalidCredential(autherr.CodeForbidden, autherr.MsgInvalidHeader, nil)
	}

	token, err := e.tokens.GetByAccessToken(ctx, value)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, autherr.InvalidCredential(autherr.CodeForbidden, autherr.MsgInvalidHeader, err)
		}
		return nil, fmt.Errorf("access token lookup: %w", err)
	}

	// SchemaID 0: the token's schema was deleted and it grants nothing.
	if !token.Enabled || token.SchemaID == 0 {
		return nil, autherr.InvalidCredential(autherr.CodeForbidden, autherr.MsgInvalidHeader, nil)
	}

	if err := ValidateNotExpired(token, e.clock.Now()); err != nil {
		return nil, err
	}

	return token, nil
}

// decodeFailure keeps the decode error as cause. Constraint violations are
// FORBIDDEN, everything else INVALID.
func decodeFailure(err error) error {
	var ae *autherr.Error
	if errors.As(err, &ae) && ae.Kind == autherr.KindSignature {
		inv := autherr.InvalidCredential(autherr.CodeForbidden, ae.Message, err)
		inv.Fields = ae.Fields
		return inv
	}
	return autherr.InvalidCredential(autherr.CodeInvalid, autherr.MsgInvalidHeader, err)
}
