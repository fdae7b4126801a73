package autherr

// Client-facing messages.
const (
	MsgInvalidHeader       = "Invalid Authorization Header"
	MsgInvalidRefreshToken = "Invalid Refresh Token"
	MsgUserNotFound        = "We couldn't find any matching users"
	MsgInvalidSchema       = "No schema has been created"
	MsgTokenNotFound       = "We couldn't find any matching tokens"
	MsgInvalidSecretKey    = "Invalid JWT Secret Key"
	MsgInvalidLogin        = "We couldn't log you in with the provided details"
	MsgMalformedToken      = "The token could not be parsed"
	MsgConstraintsViolated = "The token violates some mandatory constraints"
	MsgPersistence         = "The token could not be saved"
	MsgInvalidUser         = "The user could not be saved"
)

func MissingCredential() *Error {
	return New(KindMissingCredential, CodeForbidden, MsgInvalidHeader, nil)
}

func InvalidCredential(code Code, msg string, cause error) *Error {
	return New(KindInvalidCredential, code, msg, cause)
}

func ExpiredCredential() *Error {
	return New(KindExpiredCredential, CodeForbidden, MsgInvalidHeader, nil)
}

func Config(msg string) *Error {
	return New(KindConfig, CodeInvalid, msg, nil)
}

// Persistence surfaces the store's validation detail in Fields.
func Persistence(code Code, fields map[string][]string, cause error) *Error {
	e := New(KindPersistence, code, MsgPersistence, cause)
	e.Fields = fields
	return e
}

func UserNotFound() *Error {
	return New(KindUserNotFound, CodeInvalid, MsgUserNotFound, nil)
}

func InvalidSchema() *Error {
	return New(KindInvalidSchema, CodeInvalid, MsgInvalidSchema, nil)
}

func TokenNotFound() *Error {
	return New(KindTokenNotFound, CodeInvalid, MsgTokenNotFound, nil)
}

// Signature lists every violated constraint under Fields["violations"].
func Signature(violations []string, cause error) *Error {
	e := New(KindSignature, CodeForbidden, MsgConstraintsViolated, cause)
	e.Fields = map[string][]string{"violations": violations}
	return e
}

func MalformedToken(cause error) *Error {
	return New(KindMalformedToken, CodeInvalid, MsgMalformedToken, cause)
}

// InvalidUser rejects a registration, field by field.
func InvalidUser(fields map[string][]string, cause error) *Error {
	e := New(KindInvalidUser, CodeInvalid, MsgInvalidUser, cause)
	e.Fields = fields
	return e
}
