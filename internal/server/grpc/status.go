package grpc

import (
	"errors"
	"sort"

	"github.com/dmitrijs2005/gqlauth/internal/server/autherr"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain is the ErrorInfo domain of statuses built from core errors.
const ErrorDomain = "gqlauth"

func codeFor(c autherr.Class) codes.Code {
	switch c {
	case autherr.ClassUnauthenticated:
		return codes.Unauthenticated
	case autherr.ClassBadInput:
		return codes.InvalidArgument
	case autherr.ClassMisconfigured:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// toStatus converts err to a gRPC status error. Core errors keep their
// message; the INVALID/FORBIDDEN code travels as ErrorInfo reason and field
// messages as BadRequest violations. Anything else is an opaque internal
// error.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var ae *autherr.Error
	if !errors.As(err, &ae) {
		return status.Error(codes.Internal, "internal error")
	}

	st := status.New(codeFor(ae.Class()), ae.Message)

	info := &errdetails.ErrorInfo{
		Reason:   string(ae.Code),
		Domain:   ErrorDomain,
		Metadata: map[string]string{"kind": string(ae.Kind)},
	}

	var detailed *status.Status
	if len(ae.Fields) > 0 {
		detailed, err = st.WithDetails(info, badRequest(ae.Fields))
	} else {
		detailed, err = st.WithDetails(info)
	}
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

func badRequest(fields map[string][]string) *errdetails.BadRequest {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	br := &errdetails.BadRequest{}
	for _, name := range names {
		for _, msg := range fields[name] {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       name,
				Description: msg,
			})
		}
	}
	return br
}
