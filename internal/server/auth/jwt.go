// Package auth implements the signed token codec, credential extraction from
// authorization headers, expiry checks and refresh cookie handling.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/autherr"
	"github.com/golang-jwt/jwt/v5"
)

// Claim names that hooks may not set.
const (
	ClaimIssuer      = "iss"
	ClaimIssuedAt    = "iat"
	ClaimExpiresAt   = "exp"
	ClaimSubject     = "sub"
	ClaimAccessToken = "accessToken"
)

var reservedClaims = []string{ClaimIssuer, ClaimIssuedAt, ClaimExpiresAt, ClaimSubject, ClaimAccessToken}

// ErrReservedClaim is returned by ClaimsBuilder.WithClaim for mandatory claims.
var ErrReservedClaim = errors.New("claim is reserved")

// Claims is the payload of a signed token: the registered claims, the
// identity claims and whatever extension claims hooks added.
type Claims struct {
	jwt.RegisteredClaims
	FullName    string   `json:"fullName,omitempty"`
	Email       string   `json:"email,omitempty"`
	Groups      []string `json:"groups,omitempty"`
	Schema      string   `json:"schema,omitempty"`
	Admin       bool     `json:"admin"`
	AccessToken string   `json:"accessToken"`

	Extra map[string]any `json:"-"`
}

type claimsAlias Claims

func (c Claims) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(claimsAlias(c))
	if err != nil || len(c.Extra) == 0 {
		return base, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		if slices.Contains(reservedClaims, k) {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("claim %q: %w", k, err)
		}
		merged[k] = raw
	}
	return json.Marshal(merged)
}

var knownClaims = []string{
	"iss", "sub", "aud", "exp", "nbf", "iat", "jti",
	"fullName", "email", "groups", "schema", "admin", "accessToken",
}

func (c *Claims) UnmarshalJSON(data []byte) error {
	var a claimsAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k, raw := range all {
		if slices.Contains(knownClaims, k) {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if a.Extra == nil {
			a.Extra = map[string]any{}
		}
		a.Extra[k] = v
	}

	*c = Claims(a)
	return nil
}

// ClaimsBuilder is handed to sign hooks. It allows adding or overriding
// non-mandatory claims only.
type ClaimsBuilder struct {
	claims *Claims
}

func (b *ClaimsBuilder) WithClaim(name string, value any) error {
	if slices.Contains(reservedClaims, name) {
		return fmt.Errorf("%s: %w", name, ErrReservedClaim)
	}

	var ok bool
	switch name {
	case "fullName":
		b.claims.FullName, ok = value.(string)
	case "email":
		b.claims.Email, ok = value.(string)
	case "schema":
		b.claims.Schema, ok = value.(string)
	case "admin":
		b.claims.Admin, ok = value.(bool)
	case "groups":
		b.claims.Groups, ok = value.([]string)
	default:
		if b.claims.Extra == nil {
			b.claims.Extra = map[string]any{}
		}
		b.claims.Extra[name] = value
		return nil
	}
	if !ok {
		return fmt.Errorf("claim %s: unexpected type %T", name, value)
	}
	return nil
}

// Claim returns the current value of a claim by name.
func (b *ClaimsBuilder) Claim(name string) (any, bool) {
	switch name {
	case "fullName":
		return b.claims.FullName, true
	case "email":
		return b.claims.Email, true
	case "schema":
		return b.claims.Schema, true
	case "admin":
		return b.claims.Admin, true
	case "groups":
		return b.claims.Groups, true
	case ClaimAccessToken:
		return b.claims.AccessToken, true
	case ClaimSubject:
		return b.claims.RegisteredClaims.Subject, true
	case ClaimIssuer:
		return b.claims.Issuer, true
	}
	v, ok := b.claims.Extra[name]
	return v, ok
}

// SignHook runs before every signature and may add claims.
type SignHook func(b *ClaimsBuilder) error

// VerifyHook runs before every verification and may add constraints.
type VerifyHook func(v *Validator)

// Codec signs and verifies HS256 tokens.
type Codec struct {
	clock       common.Clock
	signHooks   []SignHook
	verifyHooks []VerifyHook
}

type CodecOption func(*Codec)

func WithSignHook(h SignHook) CodecOption {
	return func(c *Codec) { c.signHooks = append(c.signHooks, h) }
}

func WithVerifyHook(h VerifyHook) CodecOption {
	return func(c *Codec) { c.verifyHooks = append(c.verifyHooks, h) }
}

func NewCodec(clock common.Clock, opts ...CodecOption) *Codec {
	c := &Codec{clock: clock}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Encode runs the sign hooks on a copy of claims and signs the result.
func (c *Codec) Encode(claims Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", autherr.Config(autherr.MsgInvalidSecretKey)
	}

	if claims.Extra != nil {
		claims.Extra = maps.Clone(claims.Extra)
	}
	b := &ClaimsBuilder{claims: &claims}
	for _, h := range c.signHooks {
		if err := h(b); err != nil {
			return "", err
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, b.claims)

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Decode parses tokenString and asserts the signature together with every
// constraint in one pass. Any violation yields a single signature error
// naming all of them.
func (c *Codec) Decode(tokenString string, secret []byte) (*Claims, error) {
	if len(secret) == 0 {
		return nil, autherr.Config(autherr.MsgInvalidSecretKey)
	}

	v := &Validator{}
	v.Add(NotExpired())
	for _, h := range c.verifyHooks {
		h(v)
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	var violations []string
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, autherr.MalformedToken(err)
		}
		violations = append(violations, ConstraintSignedWith)
	}

	violations = append(violations, v.violations(claims, c.clock.Now())...)
	if len(violations) > 0 {
		return nil, autherr.Signature(violations, err)
	}

	return claims, nil
}
