package grpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/gqlauth/internal/server/autherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"missing credential", autherr.MissingCredential(), codes.Unauthenticated},
		{"invalid credential", autherr.InvalidCredential(autherr.CodeInvalid, autherr.MsgInvalidRefreshToken, nil), codes.Unauthenticated},
		{"expired", autherr.ExpiredCredential(), codes.Unauthenticated},
		{"malformed", autherr.MalformedToken(errors.New("bad")), codes.Unauthenticated},
		{"signature", autherr.Signature([]string{"signed_with"}, nil), codes.Unauthenticated},
		{"user not found", autherr.UserNotFound(), codes.InvalidArgument},
		{"invalid schema", autherr.InvalidSchema(), codes.InvalidArgument},
		{"token not found", autherr.TokenNotFound(), codes.InvalidArgument},
		{"config", autherr.Config(autherr.MsgInvalidSecretKey), codes.FailedPrecondition},
		{"persistence", autherr.Persistence(autherr.CodeForbidden, nil, errors.New("db")), codes.Internal},
		{"wrapped", fmt.Errorf("login: %w", autherr.UserNotFound()), codes.InvalidArgument},
		{"foreign", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(toStatus(tt.err)))
		})
	}
}

func TestToStatus_Details(t *testing.T) {
	err := toStatus(autherr.Persistence(autherr.CodeForbidden, map[string][]string{
		"name":        {"Name cannot be blank."},
		"accessToken": {"accessToken has already been taken"},
	}, nil))

	st := status.Convert(err)
	assert.Equal(t, autherr.MsgPersistence, st.Message())

	var info *errdetails.ErrorInfo
	var br *errdetails.BadRequest
	for _, d := range st.Details() {
		switch v := d.(type) {
		case *errdetails.ErrorInfo:
			info = v
		case *errdetails.BadRequest:
			br = v
		}
	}
	require.NotNil(t, info)
	assert.Equal(t, "FORBIDDEN", info.Reason)
	assert.Equal(t, ErrorDomain, info.Domain)
	assert.Equal(t, "persistence", info.Metadata["kind"])

	require.NotNil(t, br)
	require.Len(t, br.FieldViolations, 2)
	assert.Equal(t, "accessToken", br.FieldViolations[0].Field)
	assert.Equal(t, "name", br.FieldViolations[1].Field)
}

func TestToStatus_KeepsStatusErrors(t *testing.T) {
	in := status.Error(codes.Unavailable, "try later")
	assert.Equal(t, in, toStatus(in))
}
