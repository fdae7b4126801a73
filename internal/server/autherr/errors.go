// Package autherr defines the structured error returned by the token
// lifecycle core. Each error carries a Kind, a coarse Code used by clients
// ("INVALID" or "FORBIDDEN"), an optional field -> messages map with store
// validation detail, and the underlying cause.
package autherr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies what went wrong.
type Kind string

const (
	KindMissingCredential Kind = "missing_credential"
	KindInvalidCredential Kind = "invalid_credential"
	KindExpiredCredential Kind = "expired_credential"
	KindConfig            Kind = "config"
	KindPersistence       Kind = "persistence"
	KindUserNotFound      Kind = "user_not_found"
	KindInvalidSchema     Kind = "invalid_schema"
	KindTokenNotFound     Kind = "token_not_found"
	KindSignature         Kind = "signature"
	KindMalformedToken    Kind = "malformed_token"
	KindInvalidUser       Kind = "invalid_user"
)

// Code distinguishes input the caller got wrong from input that was
// recognised but rejected.
type Code string

const (
	CodeInvalid   Code = "INVALID"
	CodeForbidden Code = "FORBIDDEN"
)

// Class is the transport-independent category the boundary maps to a status.
type Class int

const (
	ClassUnauthenticated Class = iota
	ClassBadInput
	ClassMisconfigured
	ClassStorage
)

func (c Class) String() string {
	switch c {
	case ClassUnauthenticated:
		return "unauthenticated"
	case ClassBadInput:
		return "bad_input"
	case ClassMisconfigured:
		return "misconfigured"
	case ClassStorage:
		return "storage"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

func (k Kind) Class() Class {
	switch k {
	case KindUserNotFound, KindInvalidSchema, KindTokenNotFound, KindInvalidUser:
		return ClassBadInput
	case KindConfig:
		return ClassMisconfigured
	case KindPersistence:
		return ClassStorage
	default:
		return ClassUnauthenticated
	}
}

type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Fields  map[string][]string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", k, strings.Join(e.Fields[k], "; "))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same Kind, so callers can compare against the
// Err* values below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) Class() Class { return e.Kind.Class() }

// Kind markers for errors.Is.
var (
	ErrMissingCredential = &Error{Kind: KindMissingCredential}
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential}
	ErrExpiredCredential = &Error{Kind: KindExpiredCredential}
	ErrConfig            = &Error{Kind: KindConfig}
	ErrPersistence       = &Error{Kind: KindPersistence}
	ErrUserNotFound      = &Error{Kind: KindUserNotFound}
	ErrInvalidSchema     = &Error{Kind: KindInvalidSchema}
	ErrTokenNotFound     = &Error{Kind: KindTokenNotFound}
	ErrSignature         = &Error{Kind: KindSignature}
	ErrMalformedToken    = &Error{Kind: KindMalformedToken}
	ErrInvalidUser       = &Error{Kind: KindInvalidUser}
)

func New(kind Kind, code Code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ClassOf returns the class of err. Errors that did not originate in the
// core are storage failures.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class()
	}
	return ClassStorage
}
